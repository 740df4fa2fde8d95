package middleware

import (
	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// RequireAuth aborts with 401 unless CookieAuth stored a user id
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			common.AbortWithError(c, common.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return ""
	}
	if str, ok := userID.(string); ok {
		return str
	}
	return ""
}
