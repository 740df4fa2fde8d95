package handler

import (
	"net/http"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/config"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	config  config.JWTConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service service.AuthService, cfg config.JWTConfig) *AuthHandler {
	if cfg.CookieName == "" {
		cfg.CookieName = middleware.DefaultCookieName
	}
	return &AuthHandler{
		service: service,
		config:  cfg,
	}
}

// Login handles POST /auth/login
// 세션 토큰은 httpOnly 쿠키로만 전달 (body에는 없음)
// @Summary 로그인
// @Tags auth
// @Accept json
// @Param request body domain.LoginRequest true "username, password"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrMissingCredentials)
		return
	}

	token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		common.Fail(c, err)
		return
	}

	h.setSessionCookie(c, token, int(h.config.ExpiresIn.Seconds()))
	common.OK(c, nil)
}

// Logout handles POST /auth/logout
// @Summary 로그아웃
// @Tags auth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	common.OK(c, gin.H{"message": common.T(c, "auth.logout_success")})
}

// Me handles GET /auth/me. Anonymous or stale sessions get {user: null}, never 401.
// @Summary 현재 사용자
// @Tags auth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// setSessionCookie writes the bb_token cookie. maxAge < 0 expires it immediately.
// 보안: httpOnly=true, SameSite=Lax
func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.config.CookieName, // name
		token,               // value
		maxAge,              // maxAge
		"/",                 // path
		"",                  // domain (빈 문자열 = 현재 도메인)
		h.config.Secure,     // secure (HTTPS only)
		true,                // httpOnly (JavaScript 접근 불가)
	)
}
