package middleware

import (
	"strings"

	"github.com/blackbox-chat/blackbox-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// DefaultCookieName is the session cookie set by POST /auth/login
const DefaultCookieName = "bb_token"

// CookieAuth - bb_token 쿠키 또는 Bearer 토큰에서 인증 정보 추출
// 인증 실패해도 요청을 계속 진행 (optional auth). 보호 그룹은 RequireAuth 사용
// 쿠키 → Bearer 토큰 순서로 검증 시도
func CookieAuth(jwtManager *jwt.Manager, cookieName string) gin.HandlerFunc {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}

	return func(c *gin.Context) {
		// 1. 쿠키
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			if claims, verifyErr := jwtManager.VerifyToken(token); verifyErr == nil {
				c.Set(userIDKey, claims.UserID())
				c.Next()
				return
			}
		}

		// 2. Bearer 토큰 (CLI, 테스트 도구)
		if token := bearerToken(c.GetHeader("Authorization")); token != "" {
			if claims, verifyErr := jwtManager.VerifyToken(token); verifyErr == nil {
				c.Set(userIDKey, claims.UserID())
			}
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
