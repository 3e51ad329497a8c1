package models

// Plan listing types served by the student plan endpoints.
const (
	PlanTypeAvailable = "available"
	PlanTypeMyPlans   = "my-plans"
)

// Plan is a memorization plan offered by a center.
type Plan struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	CenterID     int64           `json:"center_id,omitempty"`
	CenterName   string          `json:"center_name,omitempty"`
	TotalMonths  int             `json:"total_months"`
	DetailsCount int             `json:"details_count"`
	Schedules    ScheduleSummary `json:"schedules"`
}

// PlanDetail is one scheduled day of a plan. Its ID is only meaningful under PlanID.
type PlanDetail struct {
	ID     int64  `json:"id"`
	PlanID int64  `json:"plan_id"`
	DayNo  int    `json:"day_number,omitempty"`
	Date   string `json:"date,omitempty"`
}

// ScheduleSummary is the normalized schedule projection attached to every cached plan.
type ScheduleSummary struct {
	ScheduleItems  []ScheduleSlot `json:"schedule_items"`
	TotalSchedules int            `json:"total_schedules"`
}

// IsValidPlanType reports whether t names a plan listing.
func IsValidPlanType(t string) bool {
	return t == PlanTypeAvailable || t == PlanTypeMyPlans
}
