package routes

import (
	"net/http"
	"strings"
	"time"

	"halaqat/handlers"
	"halaqat/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterStudentRoutes registers the student dashboard endpoints.
func RegisterStudentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/student")
	{
		api.Use(middleware.StudentSession(hb.Registry, hb.SessionCookieName, hb.SecureCookies))
		api.GET("/plans", hb.ListPlansHandler)
		api.GET("/plans/cached", hb.CachedPlansHandler)
		api.GET("/bookings", hb.ListBookingsHandler)
		api.POST("/schedules/:scheduleId/book", hb.BookScheduleHandler)
		api.DELETE("/bookings/:bookingId", hb.CancelBookingHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowedOrigins string) {
	r.Use(cors.New(corsConfig(allowedOrigins)))

	RegisterHealthRoute(r, hb)
	RegisterStudentRoutes(r, hb)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// The dashboard sends the session cookie, so origins must be explicit for
// credentials to be honored. "*" is mapped to AllowOriginFunc and is refused
// by config.Validate in production.
func corsConfig(allowedOrigins string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
