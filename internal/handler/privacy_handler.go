package handler

import (
	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/gin-gonic/gin"
)

// PublicIDMapper maps internal ids to public ids
type PublicIDMapper interface {
	PublicIDs(internalIDs []string) map[string]string
}

// PrivacyHandler exposes the identity resolver to clients
type PrivacyHandler struct {
	resolver PublicIDMapper
}

// NewPrivacyHandler creates a new PrivacyHandler
func NewPrivacyHandler(resolver PublicIDMapper) *PrivacyHandler {
	return &PrivacyHandler{resolver: resolver}
}

type resolveIDsRequest struct {
	UIDs []string `json:"uids"`
}

// ResolveIDs handles POST /privacy/resolve-ids {uids:[...]}
// @Summary 내부 id → public id
// @Tags privacy
// @Router /privacy/resolve-ids [post]
func (h *PrivacyHandler) ResolveIDs(c *gin.Context) {
	var req resolveIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UIDs) == 0 {
		common.Fail(c, common.ErrValidation)
		return
	}
	common.OK(c, gin.H{"map": h.resolver.PublicIDs(req.UIDs)})
}
