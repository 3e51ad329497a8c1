package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every gateway-generated error.
type ErrorResponse struct {
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorHandler turns a panic in a handler into a 500 carrying the request id.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				GetLogger().Error("panic while serving request",
					zap.Any("panic", rec),
					zap.String("path", c.FullPath()),
					zap.String("requestID", c.GetString("requestID")),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message:   "Internal Server Error",
					Details:   "An unexpected error occurred. Please try again later.",
					RequestID: c.GetString("requestID"),
				})
			}
		}()
		c.Next()
	}
}

// JSONError aborts the request with a standardized error body.
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message,
		zap.Int("status", status),
		zap.String("path", c.FullPath()),
		zap.String("details", details),
	)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message:   message,
		Details:   details,
		RequestID: c.GetString("requestID"),
	})
}
