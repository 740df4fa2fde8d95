package handler

import (
	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/internal/service"
	"github.com/blackbox-chat/blackbox-backend/pkg/ginutil"
	"github.com/gin-gonic/gin"
)

// MessageHandler handles private message HTTP requests
type MessageHandler struct {
	service service.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// List handles GET /messages?peer=
// @Summary 대화 조회
// @Tags messages
// @Produce json
// @Param peer query string true "상대 public id"
// @Router /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	messages, err := h.service.List(c.Request.Context(), middleware.GetUserID(c), c.Query("peer"))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"messages": messages})
}

// Send handles POST /messages
// @Summary 메시지 보내기
// @Tags messages
// @Accept json
// @Produce json
// @Param request body domain.SendMessageRequest true "메시지"
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrValidation)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"message": msg})
}

// Edit handles PUT /messages
// @Summary 메시지 수정
// @Tags messages
// @Accept json
// @Param request body domain.EditMessageRequest true "id, content"
// @Router /messages [put]
func (h *MessageHandler) Edit(c *gin.Context) {
	var req domain.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, common.ErrValidation)
		return
	}

	msg, err := h.service.Edit(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"message": msg})
}

// Delete handles DELETE /messages?id= (one message) or ?peer_id= (whole conversation)
// @Summary 메시지 삭제 / 대화 비우기
// @Tags messages
// @Param id query string false "메시지 id (tmp- 는 무시)"
// @Param peer_id query string false "상대 public id"
// @Router /messages [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if peer := c.Query("peer_id"); peer != "" {
		n, err := h.service.ClearConversation(c.Request.Context(), userID, peer)
		if err != nil {
			common.Fail(c, err)
			return
		}
		common.OK(c, gin.H{"count": n})
		return
	}

	id := c.Query("id")
	if id == "" {
		common.Fail(c, common.ErrMissingMessageID)
		return
	}
	if domain.IsTempID(id) {
		common.OK(c, gin.H{"message": "tmp ignored"})
		return
	}

	msg, err := h.service.Delete(c.Request.Context(), userID, id)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"message": msg})
}

// MarkRead handles PATCH /messages?peer_id= and POST /messages/read {peer_id}
// @Summary 읽음 처리
// @Tags messages
// @Param peer_id query string false "상대 public id"
// @Router /messages/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	var req domain.MarkReadRequest
	if err := ginutil.BindOptionalJSON(c, &req); err != nil {
		common.Fail(c, common.ErrValidation)
		return
	}

	n, err := h.service.MarkRead(c.Request.Context(), middleware.GetUserID(c), ginutil.FirstNonEmpty(c.Query("peer_id"), req.PeerID))
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"count": n})
}
