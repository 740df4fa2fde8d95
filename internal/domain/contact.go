package domain

import "time"

// ContactStatus is the state of a directed contact edge
type ContactStatus string

const (
	ContactPending  ContactStatus = "pending"
	ContactAccepted ContactStatus = "accepted"
)

// Contact is a directed edge user → contact (contacts table).
// An accepted relationship is a symmetric pair of accepted edges.
type Contact struct {
	UserID    string        `gorm:"column:user_id;primaryKey;type:varchar(36)" json:"-"`
	ContactID string        `gorm:"column:contact_id;primaryKey;type:varchar(36);index" json:"-"`
	Status    ContactStatus `gorm:"column:status;type:varchar(16);not null;default:pending;index" json:"status"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// AddContactRequest POST /contacts. contact_id may be a public id, a raw UUID or a username.
type AddContactRequest struct {
	ContactID string `json:"contact_id"`
}

// AcceptRequest POST /contacts/requests
type AcceptRequest struct {
	RequesterID string `json:"requester_id"`
}

// ContactResponse is a contact as listed to its owner
type ContactResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	UnreadMsgs  int64   `json:"unread_msgs"`
}

// SearchResult is a PIN search hit
type SearchResult struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	PIN         string  `json:"pin"`
}

// PendingRequest is an incoming contact request
type PendingRequest struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}
