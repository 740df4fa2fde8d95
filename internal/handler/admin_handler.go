package handler

import (
	"net/http"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/internal/service"
	"github.com/blackbox-chat/blackbox-backend/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles user administration and system wipes
type AdminHandler struct {
	service service.AdminService
	audit   *middleware.AuditLogger
}

// NewAdminHandler creates a new AdminHandler. audit may be nil.
func NewAdminHandler(service service.AdminService, audit *middleware.AuditLogger) *AdminHandler {
	return &AdminHandler{service: service, audit: audit}
}

// ListUsers handles GET /admin/users
// @Summary 사용자 목록
// @Tags admin
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"users": users})
}

// CreateUser handles POST /admin/users
// @Summary 사용자 생성
// @Tags admin
// @Param request body domain.CreateUserRequest true "username, password"
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrMissingCredentials)
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		common.Fail(c, err)
		return
	}
	h.audit.Record(c, "create_user", "profile", user.ID, user.Username)
	common.OKStatus(c, http.StatusCreated, gin.H{"user": user})
}

// UpdateUser handles PATCH /admin/users/:id
// @Summary 사용자 조치 (toggle_lock, toggle_admin, reset_password, reset_pin)
// @Tags admin
// @Param id path string true "user id 또는 public id"
// @Param request body domain.AdminUserAction true "action, value"
// @Router /admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var req domain.AdminUserAction
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrInvalidAction)
		return
	}

	target := c.Param("id")
	if err := h.service.ApplyAction(c.Request.Context(), middleware.GetUserID(c), target, &req); err != nil {
		common.Fail(c, err)
		return
	}
	h.audit.Record(c, req.Action, "profile", target, "")
	common.OK(c, nil)
}

// DeleteUser handles DELETE /admin/users/:id
// @Summary 사용자 삭제 (연락처, 메시지 포함)
// @Tags admin
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	target := c.Param("id")
	if err := h.service.DeleteUser(c.Request.Context(), middleware.GetUserID(c), target); err != nil {
		common.Fail(c, err)
		return
	}
	h.audit.Record(c, "delete_user", "profile", target, "")
	common.OK(c, nil)
}

// System handles POST /admin/system {action: clear_messages|clear_storage}
// @Summary 시스템 초기화
// @Tags admin
// @Param request body domain.SystemActionRequest true "action"
// @Router /admin/system [post]
func (h *AdminHandler) System(c *gin.Context) {
	var req domain.SystemActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrInvalidAction)
		return
	}

	n, err := h.service.System(c.Request.Context(), req.Action)
	if err != nil {
		common.Fail(c, err)
		return
	}

	key := "admin.messages_cleared"
	resource := "messages"
	if req.Action == domain.ActionClearStorage {
		key = "admin.storage_cleared"
		resource = "storage"
	}
	h.audit.Record(c, req.Action, resource, "", "")
	common.OK(c, gin.H{"message": common.T(c, key), "count": n})
}

// AuditLogs handles GET /admin/audit?user_id=&action=&page=&limit=
// @Summary 감사 로그
// @Tags admin
// @Router /admin/audit [get]
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	if h.audit == nil {
		common.OK(c, gin.H{"logs": []middleware.AuditLog{}, "total": 0})
		return
	}

	page := ginutil.QueryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := ginutil.QueryInt(c, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	logs, total, err := h.audit.ListAuditLogs(c.Request.Context(), c.Query("user_id"), c.Query("action"), page, limit)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"logs": logs, "total": total})
}
