package domain

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

// Profile is a chat account (profiles table)
type Profile struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)" json:"-"`
	Username     string    `gorm:"column:username;type:varchar(64);uniqueIndex;not null" json:"username"`
	DisplayName  string    `gorm:"column:display_name;type:varchar(128)" json:"display_name"`
	AvatarURL    *string   `gorm:"column:avatar_url;type:varchar(1024)" json:"avatar_url"`
	PasswordHash string    `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	LockKeyHash  *string   `gorm:"column:lock_key_hash;type:varchar(255)" json:"-"`
	PIN          string    `gorm:"column:pin;type:varchar(6);uniqueIndex" json:"pin"`
	IsAdmin      bool      `gorm:"column:is_admin;default:false" json:"is_admin"`
	PassBlocked  bool      `gorm:"column:pass_blocked;default:false" json:"pass_blocked"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Nuked profile markers
const (
	BlockedDisplayName  = "BLOQUEADO DEFINITIVO"
	AutodestructContent = "AUTODESTRUCTED"
)

// PINLength is the length of the contact PIN
const PINLength = 6

// pinAlphabet omits 0/O and 1/I
const pinAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewPIN returns a random uppercase PIN
func NewPIN() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(pinAlphabet)))
	for i := 0; i < PINLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(pinAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizePIN trims and uppercases a PIN query
func NormalizePIN(q string) string {
	return strings.ToUpper(strings.TrimSpace(q))
}

// LoginRequest POST /auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest PATCH /profile
type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=64"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=1024"`
	DisplayName *string `json:"display_name" validate:"omitempty,max=128"`
}

// Empty reports whether the request changes nothing
func (r *UpdateProfileRequest) Empty() bool {
	return r.Username == nil && r.AvatarURL == nil && r.DisplayName == nil
}

// ChangePasswordRequest POST /profile/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// LockKeyRequest POST /profile/set-lock-key, /profile/verify-lock
type LockKeyRequest struct {
	LockKey string `json:"lock_key"`
}

// AppLockRequest POST /profile/app-lock; a null lock_key removes the lock
type AppLockRequest struct {
	LockKey *string `json:"lock_key"`
}

// ProfileResponse is the caller's own profile (GET /auth/me)
type ProfileResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	PIN         string  `json:"pin"`
	IsAdmin     bool    `json:"is_admin"`
	PassBlocked bool    `json:"pass_blocked"`
	HasLock     bool    `json:"has_lock"`
}

// ToResponse converts Profile to ProfileResponse. publicID is the
// opaque id shown to clients instead of the primary key.
func (p *Profile) ToResponse(publicID string) *ProfileResponse {
	return &ProfileResponse{
		ID:          publicID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		PIN:         p.PIN,
		IsAdmin:     p.IsAdmin,
		PassBlocked: p.PassBlocked,
		HasLock:     p.LockKeyHash != nil && *p.LockKeyHash != "",
	}
}

// AdminUserResponse is a row of GET /admin/users. Admins see raw ids.
type AdminUserResponse struct {
	ID          string  `json:"id"`
	PublicID    string  `json:"public_id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	PIN         string  `json:"pin"`
	IsAdmin     bool    `json:"is_admin"`
	PassBlocked bool    `json:"pass_blocked"`
}

// CreateUserRequest POST /admin/users
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AdminUserAction PATCH /admin/users/:id
type AdminUserAction struct {
	Action string      `json:"action"`
	Value  interface{} `json:"value"`
}

// Admin actions
const (
	ActionToggleLock    = "toggle_lock"
	ActionToggleAdmin   = "toggle_admin"
	ActionResetPassword = "reset_password"
	ActionResetPIN      = "reset_pin"
	ActionClearMessages = "clear_messages"
	ActionClearStorage  = "clear_storage"
)

// SystemActionRequest POST /admin/system
type SystemActionRequest struct {
	Action string `json:"action"`
}
