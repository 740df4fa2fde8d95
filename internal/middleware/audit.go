package middleware

import (
	"context"
	"time"

	"github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditLog is a record of an administrative or destructive operation
type AuditLog struct {
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	UserID     string `gorm:"column:user_id;size:36;index" json:"user_id"`
	Action     string `gorm:"column:action;size:64;index" json:"action"` // toggle_lock, delete_user, clear_messages, nuke, ...
	Resource   string `gorm:"column:resource;size:32" json:"resource"`   // profile, messages, storage
	ResourceID string `gorm:"column:resource_id;size:64" json:"resource_id"`
	Details    string `gorm:"column:details;type:text" json:"details"`
	ClientIP   string `gorm:"column:client_ip;size:64" json:"client_ip"`
	UserAgent  string `gorm:"column:user_agent;size:255" json:"user_agent"`
	RequestID  string `gorm:"column:request_id;size:36" json:"request_id"`

	ID int64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogger handles writing audit log entries
type AuditLogger struct {
	db *gorm.DB
}

// NewAuditLogger creates a new AuditLogger. A nil db disables auditing.
func NewAuditLogger(db *gorm.DB) *AuditLogger {
	if db != nil {
		if err := db.AutoMigrate(&AuditLog{}); err != nil {
			logger.GetLogger().Error().Err(err).Msg("audit_logs migration failed")
		}
	}
	return &AuditLogger{db: db}
}

// Record writes an audit entry for the current request. Failures are logged, never returned.
func (a *AuditLogger) Record(c *gin.Context, action, resource, resourceID, details string) {
	if a == nil || a.db == nil {
		return
	}

	entry := &AuditLog{
		UserID:     GetUserID(c),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
		ClientIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		RequestID:  GetRequestID(c),
	}

	// 요청이 취소돼도 감사 기록은 남긴다
	ctx := context.WithoutCancel(c.Request.Context())
	if err := a.db.WithContext(ctx).Create(entry).Error; err != nil {
		logger.GetLogger().Error().Err(err).
			Str("action", action).
			Str("user_id", entry.UserID).
			Msg("audit log write failed")
	}
}

// ListAuditLogs retrieves paginated audit logs with optional filters
func (a *AuditLogger) ListAuditLogs(ctx context.Context, userID, action string, page, perPage int) ([]AuditLog, int64, error) {
	var logs []AuditLog
	var total int64

	filtered := func() *gorm.DB {
		q := a.db.WithContext(ctx).Model(&AuditLog{})
		if userID != "" {
			q = q.Where("user_id = ?", userID)
		}
		if action != "" {
			q = q.Where("action = ?", action)
		}
		return q
	}

	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := filtered().Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&logs).Error

	return logs, total, err
}
