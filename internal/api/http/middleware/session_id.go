package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionHeader = "X-Session-Id"
	sessionKey    = "session_id"
)

// SessionIDMiddleware reads the client session id from X-Session-Id, issues
// a new one when it is missing or malformed, and echoes it back.
func SessionIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := strings.TrimSpace(c.GetHeader(SessionHeader))
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
		}
		c.Set(sessionKey, sid)
		c.Writer.Header().Set(SessionHeader, sid)
		c.Next()
	}
}

// SessionID returns the id set by SessionIDMiddleware.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
