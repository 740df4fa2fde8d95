package handler

import (
	"net/http"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// ProfileHandler handles the caller's own profile and app lock
type ProfileHandler struct {
	service service.ProfileService
	audit   *middleware.AuditLogger
}

// NewProfileHandler creates a new ProfileHandler. audit may be nil.
func NewProfileHandler(service service.ProfileService, audit *middleware.AuditLogger) *ProfileHandler {
	return &ProfileHandler{service: service, audit: audit}
}

// Update handles PATCH /profile
// @Summary 프로필 수정
// @Tags profile
// @Param request body domain.UpdateProfileRequest true "username, avatar_url, display_name"
// @Router /profile [patch]
func (h *ProfileHandler) Update(c *gin.Context) {
	var req domain.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrValidation)
		return
	}

	profile, err := h.service.Update(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"user": profile})
}

// ChangePassword handles POST /profile/change-password
// @Summary 비밀번호 변경
// @Tags profile
// @Param request body domain.ChangePasswordRequest true "current_password, new_password"
// @Router /profile/change-password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req domain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		common.Fail(c, common.ErrValidation)
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, nil)
}

// SetLockKey handles POST /profile/set-lock-key
// @Summary 앱 잠금 키 설정
// @Tags profile
// @Router /profile/set-lock-key [post]
func (h *ProfileHandler) SetLockKey(c *gin.Context) {
	var req domain.LockKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LockKey == "" {
		common.Fail(c, common.ErrValidation)
		return
	}

	if err := h.service.SetLockKey(c.Request.Context(), middleware.GetUserID(c), req.LockKey); err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, nil)
}

// AppLock handles POST /profile/app-lock {lock_key|null}. null or "" removes the lock.
// @Summary 앱 잠금 설정/해제
// @Tags profile
// @Router /profile/app-lock [post]
func (h *ProfileHandler) AppLock(c *gin.Context) {
	var req domain.AppLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrValidation)
		return
	}

	if err := h.service.SetAppLock(c.Request.Context(), middleware.GetUserID(c), req.LockKey); err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, nil)
}

// VerifyLock handles POST /profile/verify-lock. A wrong key is {ok:false} with 200.
// @Summary 앱 잠금 키 확인
// @Tags profile
// @Router /profile/verify-lock [post]
func (h *ProfileHandler) VerifyLock(c *gin.Context) {
	var req domain.LockKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.LockKey == "" {
		common.Fail(c, common.ErrValidation)
		return
	}

	ok, err := h.service.VerifyLock(c.Request.Context(), middleware.GetUserID(c), req.LockKey)
	if err != nil {
		common.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": ok})
}

// Avatar handles GET /profile/avatar
// @Summary 아바타 URL
// @Tags profile
// @Router /profile/avatar [get]
func (h *ProfileHandler) Avatar(c *gin.Context) {
	url, err := h.service.Avatar(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"avatar_url": url})
}

// Nuke handles POST /profile/nuke
// 모든 메시지 파기 + 계정 영구 차단. 세션 쿠키는 그대로 두지만 다음 로그인은 403
// @Summary 자폭
// @Tags profile
// @Router /profile/nuke [post]
func (h *ProfileHandler) Nuke(c *gin.Context) {
	userID := middleware.GetUserID(c)
	n, err := h.service.Nuke(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	h.audit.Record(c, "nuke", "profile", userID, "")
	common.OK(c, gin.H{"message": common.T(c, "profile.nuked"), "count": n})
}
