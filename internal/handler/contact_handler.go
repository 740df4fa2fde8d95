package handler

import (
	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/internal/service"
	"github.com/blackbox-chat/blackbox-backend/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// ContactHandler handles contact list and contact request endpoints
type ContactHandler struct {
	service service.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(service service.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

// List handles GET /contacts
// @Summary 연락처 목록 (unread_msgs 포함)
// @Tags contacts
// @Router /contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	contacts, err := h.service.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"contacts": contacts})
}

// Request handles POST /contacts {contact_id}
// @Summary 연락처 요청 (public id, UUID, username)
// @Tags contacts
// @Param request body domain.AddContactRequest true "contact_id"
// @Router /contacts [post]
func (h *ContactHandler) Request(c *gin.Context) {
	var req domain.AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrValidation)
		return
	}

	if err := h.service.Request(c.Request.Context(), middleware.GetUserID(c), req.ContactID); err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"pending": true})
}

// Remove handles DELETE /contacts?id= (or body {contact_id|id})
// @Summary 연락처 삭제
// @Tags contacts
// @Router /contacts [delete]
func (h *ContactHandler) Remove(c *gin.Context) {
	var body struct {
		ContactID string `json:"contact_id"`
		ID        string `json:"id"`
	}
	if err := ginutil.BindOptionalJSON(c, &body); err != nil {
		common.Fail(c, common.ErrValidation)
		return
	}

	contactID := ginutil.FirstNonEmpty(c.Query("id"), body.ContactID, body.ID)
	if contactID == "" {
		common.Fail(c, common.ErrMissingContactID)
		return
	}
	if err := h.service.Remove(c.Request.Context(), middleware.GetUserID(c), contactID); err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, nil)
}

// Search handles PATCH /contacts?q=<PIN>
// @Summary PIN 검색
// @Tags contacts
// @Param q query string true "6자리 PIN"
// @Router /contacts [patch]
func (h *ContactHandler) Search(c *gin.Context) {
	users, err := h.service.SearchByPIN(c.Request.Context(), middleware.GetUserID(c), c.Query("q"))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"users": users})
}

// PendingRequests handles GET /contacts/requests
// @Summary 받은 연락처 요청
// @Tags contacts
// @Router /contacts/requests [get]
func (h *ContactHandler) PendingRequests(c *gin.Context) {
	requests, err := h.service.PendingRequests(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"requests": requests})
}

// Accept handles POST /contacts/requests {requester_id}
// @Summary 연락처 요청 수락
// @Tags contacts
// @Param request body domain.AcceptRequest true "requester_id"
// @Router /contacts/requests [post]
func (h *ContactHandler) Accept(c *gin.Context) {
	var req domain.AcceptRequest
	if err := ginutil.BindOptionalJSON(c, &req); err != nil || req.RequesterID == "" {
		common.Fail(c, common.ErrMissingContactID)
		return
	}

	contact, err := h.service.Accept(c.Request.Context(), middleware.GetUserID(c), req.RequesterID)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"contact": contact})
}

// Reject handles DELETE /contacts/requests?id=
// @Summary 연락처 요청 거절
// @Tags contacts
// @Router /contacts/requests [delete]
func (h *ContactHandler) Reject(c *gin.Context) {
	requester := c.Query("id")
	if requester == "" {
		common.Fail(c, common.ErrMissingContactID)
		return
	}
	if err := h.service.Reject(c.Request.Context(), middleware.GetUserID(c), requester); err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, nil)
}
