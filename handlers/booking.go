package handlers

import (
	"net/http"

	"halaqat/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type bookInput struct {
	PlanID        int64 `json:"plan_id" binding:"required"`
	PlanDetailsID int64 `json:"plan_details_id"`
}

// BookSchedule books a schedule slot against the plan's resolved detail.
func (h *StudentHandler) BookSchedule(c *gin.Context) {
	s, ok := currentStudent(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "scheduleId")
	if !ok {
		return
	}
	var input bookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	result, shared := s.Book(c.Request.Context(), scheduleID, input.PlanID, input.PlanDetailsID)
	if shared {
		getLogger(c).Info("book request joined an attempt already in flight", zap.Int64("scheduleID", scheduleID))
	}
	writeResult(c, result)
}

// CancelBooking cancels one of the student's bookings.
func (h *StudentHandler) CancelBooking(c *gin.Context) {
	s, ok := currentStudent(c)
	if !ok {
		return
	}
	bookingID, ok := idParam(c, "bookingId")
	if !ok {
		return
	}
	writeResult(c, s.Booking.Cancel(c.Request.Context(), bookingID))
}

func writeResult(c *gin.Context, result models.BookingResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
