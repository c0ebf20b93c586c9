package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the caller identity asserted by the upstream gateway.
// Authentication itself happens outside this service.
const HeaderUserID = "X-User-ID"

// ctxKeyUserID is the Gin context key shared with upstream auth middleware.
const ctxKeyUserID = "userID"

// Identity copies X-User-ID into the Gin context when no upstream component
// has already set "userID". It never rejects a request; handlers that need an
// identity check UserID themselves.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			if v := strings.TrimSpace(c.GetHeader(HeaderUserID)); v != "" {
				c.Set(ctxKeyUserID, v)
			}
		}
		c.Next()
	}
}

// UserID returns the caller's identity or "" when none is known.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
