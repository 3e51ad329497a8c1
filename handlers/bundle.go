// File: halaqat/handlers/bundle.go
package handlers

import (
	"halaqat/services/student"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Registry          *student.Registry
	SessionCookieName string
	SecureCookies     bool

	// Plan and booking listings.
	ListPlansHandler    gin.HandlerFunc
	CachedPlansHandler  gin.HandlerFunc
	ListBookingsHandler gin.HandlerFunc

	// Booking mutations.
	BookScheduleHandler  gin.HandlerFunc
	CancelBookingHandler gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires the student handlers around a session registry.
func NewHandlerBundle(registry *student.Registry, cookieName string, secure bool) *HandlerBundle {
	sh := NewStudentHandler()
	return &HandlerBundle{
		Registry:             registry,
		SessionCookieName:    cookieName,
		SecureCookies:        secure,
		ListPlansHandler:     sh.ListPlans,
		CachedPlansHandler:   sh.CachedPlans,
		ListBookingsHandler:  sh.ListBookings,
		BookScheduleHandler:  sh.BookSchedule,
		CancelBookingHandler: sh.CancelBooking,
		HealthHandler:        HealthHandler(registry),
	}
}
