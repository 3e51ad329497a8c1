package models

// ScheduleSlot is a bookable session of a teaching circle. Availability and
// counts are computed by the backend and are never recomputed here.
type ScheduleSlot struct {
	ID             int64  `json:"id"`
	PlanID         int64  `json:"plan_id,omitempty"`
	CircleID       int64  `json:"circle_id,omitempty"`
	CircleName     string `json:"circle_name,omitempty"`
	PlanDetailsID  int64  `json:"plan_details_id,omitempty"` // detail the summary was rendered from; may be stale
	Date           string `json:"date"`                      // "YYYY-MM-DD"
	StartTime      string `json:"start_time"`                // "HH:MM"
	EndTime        string `json:"end_time"`
	IsAvailable    bool   `json:"is_available"`
	BookedStudents int    `json:"booked_students"`
	MaxStudents    int    `json:"max_students"`
}
