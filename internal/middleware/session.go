package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/vidrag/vidrag/internal/session"
)

const (
	SessionHeader       = "X-Session-Id"
	ContextSessionIDKey = "session_id"
)

// Session resolves the caller's session id. Requests without one get a
// fresh id, echoed back in the response header so the client can persist
// it.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			id = session.NewID()
		}
		c.Set(ContextSessionIDKey, id)
		c.Writer.Header().Set(SessionHeader, id)
		c.Next()
	}
}

// SessionID returns the id resolved by the Session middleware.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(ContextSessionIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
