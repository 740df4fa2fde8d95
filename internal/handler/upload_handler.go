package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// UploadHandler handles raw-body media uploads
type UploadHandler struct {
	service service.UploadService
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(service service.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Upload handles POST /upload?type=avatar|chat
// The request body is the file itself; Content-Type selects the extension.
// @Summary 아바타/채팅 미디어 업로드
// @Tags upload
// @Param type query string false "avatar (기본) | chat"
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if limit := h.service.MaxBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			common.Fail(c, common.ErrUploadTooLarge)
			return
		}
		common.Fail(c, common.ErrEmptyUpload)
		return
	}

	contentType := c.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.service.Upload(c.Request.Context(), middleware.GetUserID(c), c.Query("type"), contentType, data)
	if err != nil {
		common.Fail(c, err)
		return
	}
	common.OK(c, gin.H{"key": result.Key, "publicURL": result.PublicURL})
}
