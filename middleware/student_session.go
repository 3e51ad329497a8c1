package middleware

import (
	"net/http"

	"halaqat/services/student"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const studentSessionKey = "studentSession"

// StudentSession attaches the caller's student session, creating one on first
// contact. The browser's other cookies seed the new session's jar.
// Mutating requests make sure the session holds a token before the handler runs.
func StudentSession(registry *student.Registry, cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := RequestLogger(c)

		if id, err := c.Cookie(cookieName); err == nil && id != "" {
			if s, err := registry.Get(id); err == nil {
				attach(c, s)
				return
			}
		}

		var seed []*http.Cookie
		for _, ck := range c.Request.Cookies() {
			if ck.Name != cookieName {
				seed = append(seed, ck)
			}
		}
		s, err := registry.Create(seed)
		if err != nil {
			logger.Error("failed to create student session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to start session"})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, s.ID, 0, "/", "", secure, true)
		attach(c, s)
	}
}

func attach(c *gin.Context, s *student.Session) {
	c.Set(studentSessionKey, s)
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
	default:
		s.Guard.EnsureToken(c.Request.Context())
	}
	c.Next()
}

// CurrentStudent returns the session attached by StudentSession.
func CurrentStudent(c *gin.Context) (*student.Session, bool) {
	v, exists := c.Get(studentSessionKey)
	if !exists {
		return nil, false
	}
	s, ok := v.(*student.Session)
	return s, ok
}
