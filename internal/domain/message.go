package domain

import (
	"strings"
	"time"
)

// MessageType discriminates the payload of a message
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeImage   MessageType = "image"
	MessageTypeSticker MessageType = "sticker"
	MessageTypeAudio   MessageType = "audio"
)

// Valid reports whether t is a known message type
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeSticker, MessageTypeAudio:
		return true
	}
	return false
}

// TempIDPrefix marks client-side optimistic ids that never reach the store
const TempIDPrefix = "tmp-"

// IsTempID reports whether id is a client-side optimistic id
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// Message is one row of a conversation (messages table).
// At most one of Content/ImageURL/StickerURL/AudioURL is set, matching MessageType.
type Message struct {
	ID          int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SenderID    string      `gorm:"column:sender_id;type:varchar(36);not null;index:idx_messages_pair,priority:1" json:"-"`
	ReceiverID  string      `gorm:"column:receiver_id;type:varchar(36);not null;index:idx_messages_pair,priority:2" json:"-"`
	Content     *string     `gorm:"column:content;type:text" json:"content"`
	MessageType MessageType `gorm:"column:message_type;type:varchar(16);not null;default:text" json:"message_type"`
	ImageURL    *string     `gorm:"column:image_url;type:varchar(1024)" json:"image_url"`
	StickerURL  *string     `gorm:"column:sticker_url;type:varchar(1024)" json:"sticker_url"`
	AudioURL    *string     `gorm:"column:audio_url;type:varchar(1024)" json:"audio_url"`
	ReplyToID   *int64      `gorm:"column:reply_to_id;index" json:"reply_to_id"`
	CreatedAt   time.Time   `gorm:"column:created_at;index" json:"created_at"`
	IsEdited    bool        `gorm:"column:is_edited;default:false" json:"is_edited"`
	IsRead      bool        `gorm:"column:is_read;default:false" json:"is_read"`
	IsDeleted   bool        `gorm:"column:is_deleted;default:false" json:"is_deleted"`
	ExpiresAt   *time.Time  `gorm:"column:expires_at;index" json:"expires_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Involves reports whether userID is the sender or the receiver
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Peer returns the other participant from userID's point of view
func (m *Message) Peer(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Expired reports whether the advisory expiry has passed
func (m *Message) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// Redact blanks content and attachments the way a soft-delete does
func (m *Message) Redact(content string) {
	m.Content = &content
	m.ImageURL = nil
	m.StickerURL = nil
	m.AudioURL = nil
	m.IsDeleted = true
}

// Attachment returns the populated attachment url, if any
func (m *Message) Attachment() string {
	for _, p := range []*string{m.ImageURL, m.StickerURL, m.AudioURL} {
		if p != nil {
			return *p
		}
	}
	return ""
}

// SendMessageRequest POST /messages. receiver_id is a public id (or a raw
// UUID for compatibility); reply_to_id/expires_at are optional.
type SendMessageRequest struct {
	ReceiverID  string      `json:"receiver_id"`
	Content     *string     `json:"content"`
	MessageType MessageType `json:"message_type"`
	ImageURL    *string     `json:"image_url"`
	StickerURL  *string     `json:"sticker_url"`
	AudioURL    *string     `json:"audio_url"`
	ReplyToID   *int64      `json:"reply_to_id"`
	ExpiresAt   *time.Time  `json:"expires_at"`
}

// EditMessageRequest PUT /messages
type EditMessageRequest struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

// MarkReadRequest POST /messages/read
type MarkReadRequest struct {
	PeerID string `json:"peer_id"`
}

// MessageResponse is a message as clients see it: participants are public ids
type MessageResponse struct {
	ID               int64       `json:"id"`
	SenderPublicID   string      `json:"sender_public_id"`
	ReceiverPublicID string      `json:"receiver_public_id"`
	Content          *string     `json:"content"`
	MessageType      MessageType `json:"message_type"`
	ImageURL         *string     `json:"image_url"`
	StickerURL       *string     `json:"sticker_url"`
	AudioURL         *string     `json:"audio_url"`
	ReplyToID        *int64      `json:"reply_to_id"`
	CreatedAt        time.Time   `json:"created_at"`
	IsEdited         bool        `json:"is_edited"`
	IsRead           bool        `json:"is_read"`
	IsDeleted        bool        `json:"is_deleted"`
	ExpiresAt        *time.Time  `json:"expires_at"`
}

// ToResponse converts Message to MessageResponse using publicID for participants
func (m *Message) ToResponse(publicID func(string) string) *MessageResponse {
	return &MessageResponse{
		ID:               m.ID,
		SenderPublicID:   publicID(m.SenderID),
		ReceiverPublicID: publicID(m.ReceiverID),
		Content:          m.Content,
		MessageType:      m.MessageType,
		ImageURL:         m.ImageURL,
		StickerURL:       m.StickerURL,
		AudioURL:         m.AudioURL,
		ReplyToID:        m.ReplyToID,
		CreatedAt:        m.CreatedAt,
		IsEdited:         m.IsEdited,
		IsRead:           m.IsRead,
		IsDeleted:        m.IsDeleted,
		ExpiresAt:        m.ExpiresAt,
	}
}
