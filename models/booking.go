package models

// Booking statuses as reported by the backend.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is a student's reservation of a schedule slot.
type Booking struct {
	ID            int64         `json:"id"`
	Status        string        `json:"status"`
	PlanID        int64         `json:"plan_id"`
	ScheduleID    int64         `json:"schedule_id,omitempty"`
	PlanDetailsID int64         `json:"plan_details_id,omitempty"`
	Plan          *Plan         `json:"plan,omitempty"`
	Schedule      *ScheduleSlot `json:"schedule,omitempty"`
	CreatedAt     string        `json:"created_at,omitempty"`
}

// BookRequest is the body posted to the booking endpoint.
type BookRequest struct {
	PlanID        int64 `json:"plan_id"`
	PlanDetailsID int64 `json:"plan_details_id"`
}

// BookingResult is what a book or cancel attempt resolves to. Failures are
// values too; Message is always safe to show to the student.
type BookingResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Booking *Booking `json:"booking,omitempty"`
}
