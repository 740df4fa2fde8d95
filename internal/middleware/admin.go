package middleware

import (
	"context"
	"errors"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/pkg/cache"
	"github.com/gin-gonic/gin"
)

// FlagsProvider returns the cached authorization flags of a profile
type FlagsProvider interface {
	Flags(ctx context.Context, userID string) (*cache.ProfileFlags, error)
}

// RequireAdmin checks that the authenticated user has is_admin set
func RequireAdmin(profiles FlagsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == "" {
			common.AbortWithError(c, common.ErrUnauthorized)
			return
		}
		flags, err := profiles.Flags(c.Request.Context(), userID)
		if err != nil {
			// 토큰은 유효하지만 프로필이 삭제된 경우
			if errors.Is(err, common.ErrNotFound) {
				err = common.ErrUnauthorized
			}
			common.AbortWithError(c, err)
			return
		}
		if flags == nil || !flags.IsAdmin {
			common.AbortWithError(c, common.ErrAdminRequired)
			return
		}
		c.Next()
	}
}
