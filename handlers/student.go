package handlers

import (
	"net/http"
	"strconv"

	"halaqat/middleware"
	"halaqat/models"
	"halaqat/services/student"
	"halaqat/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StudentHandler serves the student dashboard: plan and booking listings and
// the book/cancel mutations.
type StudentHandler struct{}

func NewStudentHandler() *StudentHandler {
	return &StudentHandler{}
}

func currentStudent(c *gin.Context) (*student.Session, bool) {
	s, ok := middleware.CurrentStudent(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, "no student session", "")
		return nil, false
	}
	return s, true
}

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid "+name, c.Param(name))
		return 0, false
	}
	return id, true
}

// ListPlans fetches a page of plans and caches it as the session's current listing.
func (h *StudentHandler) ListPlans(c *gin.Context) {
	s, ok := currentStudent(c)
	if !ok {
		return
	}
	planType := c.DefaultQuery("type", models.PlanTypeAvailable)
	if !models.IsValidPlanType(planType) {
		utils.JSONError(c, http.StatusBadRequest, "invalid plan type", planType)
		return
	}

	page, err := s.Views.FetchPlans(c.Request.Context(), pageParam(c), planType)
	if err != nil {
		getLogger(c).Error("failed to fetch plans", zap.String("type", planType), zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "failed to fetch plans", err.Error())
		return
	}
	c.JSON(http.StatusOK, page)
}

// CachedPlans returns the cached listing without contacting the backend.
func (h *StudentHandler) CachedPlans(c *gin.Context) {
	s, ok := currentStudent(c)
	if !ok {
		return
	}
	planType := c.DefaultQuery("type", models.PlanTypeAvailable)
	if !models.IsValidPlanType(planType) {
		utils.JSONError(c, http.StatusBadRequest, "invalid plan type", planType)
		return
	}
	page, err := s.Views.Plans(c.Request.Context(), planType)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to read cached plans", err.Error())
		return
	}
	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cached plans for type", "type": planType})
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListBookings fetches a page of the student's bookings.
func (h *StudentHandler) ListBookings(c *gin.Context) {
	s, ok := currentStudent(c)
	if !ok {
		return
	}
	page, err := s.Views.FetchBookings(c.Request.Context(), pageParam(c))
	if err != nil {
		getLogger(c).Error("failed to fetch bookings", zap.Error(err))
		utils.JSONError(c, http.StatusBadGateway, "failed to fetch bookings", err.Error())
		return
	}
	c.JSON(http.StatusOK, page)
}
