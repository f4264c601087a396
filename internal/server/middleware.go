package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

const contextUserIDKey = "auth_user_id"

// RequireUser resolves the requester identity installed by the fronting
// auth layer. Authentication itself lives outside this service; the
// X-User-Id header is the trust boundary convention.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if _, err := snowflake.ParseString(raw); err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Set(contextUserIDKey, raw)
		c.Next()
	}
}

func (s *Server) userIDFromRequest(c *gin.Context) (snowflake.ID, bool) {
	value, ok := c.Get(contextUserIDKey)
	if !ok {
		return 0, false
	}
	raw, ok := value.(string)
	if !ok {
		return 0, false
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return userID, true
}
