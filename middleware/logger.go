package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	loggerKey    = "logger"
	requestIDKey = "requestID"
)

// RequestLogging tags each request with an id and stores a request-scoped
// logger in the context under "logger".
func RequestLogging(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		logger := base.With(zap.String("requestID", requestID))
		c.Set(loggerKey, logger)
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("ip", clientIP(c)),
		)
	}
}

// RequestLogger returns the request-scoped logger, or the global one.
func RequestLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get(loggerKey); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}
