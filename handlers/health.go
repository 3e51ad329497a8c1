package handlers

import (
	"net/http"

	"halaqat/services/student"
	"halaqat/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports gateway and dependency status.
func HealthHandler(registry *student.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		state := "ok"
		if status.Redis != nil && !*status.Redis {
			code = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(code, gin.H{
			"status":   state,
			"message":  "Hi, I'm Halaqat",
			"sessions": registry.Len(),
			"services": status,
		})
	}
}
