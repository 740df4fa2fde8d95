package repository

import (
	"context"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"gorm.io/gorm"
)

// MessageRepository message data access interface
type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	FindByID(ctx context.Context, id int64) (*domain.Message, error)
	ListConversation(ctx context.Context, a, b string, now time.Time) ([]*domain.Message, error)
	MarkRead(ctx context.Context, receiverID, senderID string) (int64, error)
	UpdateContent(ctx context.Context, id int64, content string) error
	SoftDelete(ctx context.Context, id int64) error
	SoftDeleteConversation(ctx context.Context, a, b string) (int64, error)
	ListUnreadCounts(ctx context.Context, receiverID string, senderIDs []string) (map[string]int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *messageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	var m domain.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// pair scopes a query to both directions of the a↔b conversation
func pair(a, b string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a)
	}
}

// ListConversation returns both directions in ascending order; expired rows are hidden
func (r *messageRepository) ListConversation(ctx context.Context, a, b string, now time.Time) ([]*domain.Message, error) {
	var messages []*domain.Message
	err := r.db.WithContext(ctx).
		Scopes(pair(a, b)).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// MarkRead flags every unread message sender → receiver as read
func (r *messageRepository) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// UpdateContent rewrites a live message's text and marks it edited
func (r *messageRepository) UpdateContent(ctx context.Context, id int64, content string) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"content":   content,
			"is_edited": true,
		}).Error
}

func redactColumns() map[string]interface{} {
	return map[string]interface{}{
		"is_deleted":  true,
		"content":     "",
		"image_url":   nil,
		"sticker_url": nil,
		"audio_url":   nil,
	}
}

func (r *messageRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("id = ?", id).
		Updates(redactColumns()).Error
}

// SoftDeleteConversation redacts every row in both directions
func (r *messageRepository) SoftDeleteConversation(ctx context.Context, a, b string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Message{}).
		Scopes(pair(a, b)).
		Updates(redactColumns())
	return result.RowsAffected, result.Error
}

type unreadRow struct {
	SenderID string
	Count    int64
}

// ListUnreadCounts counts unread, live messages per sender addressed to receiverID
func (r *messageRepository) ListUnreadCounts(ctx context.Context, receiverID string, senderIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(senderIDs))
	if len(senderIDs) == 0 {
		return counts, nil
	}

	var rows []unreadRow
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Select("sender_id, COUNT(*) AS count").
		Where("receiver_id = ? AND sender_id IN ? AND is_read = ? AND is_deleted = ?", receiverID, senderIDs, false, false).
		Group("sender_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.SenderID] = row.Count
	}
	return counts, nil
}

// DeleteAll hard-deletes every message
func (r *messageRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&domain.Message{})
	return result.RowsAffected, result.Error
}
