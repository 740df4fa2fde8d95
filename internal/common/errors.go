package common

import (
	"errors"
	"net/http"
)

// Error kinds. Every business error wraps exactly one of these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("conflict")
)

// Error is a business error carrying a translation key
type Error struct {
	Kind    error
	Key     string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, key, msg string) *Error {
	return &Error{Kind: kind, Key: key, Message: msg}
}

// ErrValidation is the generic malformed-input error
var ErrValidation = newError(ErrInvalidInput, "error.validation", "invalid input")

// Auth errors
var (
	ErrInvalidCredentials = newError(ErrUnauthorized, "auth.login_failed", "invalid credentials")
	ErrInvalidToken       = newError(ErrUnauthorized, "auth.token_invalid", "invalid token")
	ErrExpiredToken       = newError(ErrUnauthorized, "auth.token_expired", "expired token")
	ErrAccountBlocked     = newError(ErrForbidden, "auth.blocked", "account blocked")
	ErrWrongPassword      = newError(ErrForbidden, "auth.wrong_password", "current password is incorrect")
	ErrAdminRequired      = newError(ErrForbidden, "auth.admin_required", "admin access required")
	ErrMissingCredentials = newError(ErrInvalidInput, "auth.missing_fields", "missing username or password")
	ErrWeakPassword       = newError(ErrInvalidInput, "auth.password_policy", "password too short")
)

// Contact errors
var (
	ErrUserNotFound           = newError(ErrNotFound, "contact.user_not_found", "user not found")
	ErrSelfContact            = newError(ErrInvalidInput, "contact.self", "cannot add yourself")
	ErrAlreadyContact         = newError(ErrConflict, "contact.already_added", "already a contact")
	ErrRequestAlreadySent     = newError(ErrConflict, "contact.request_sent", "request already sent")
	ErrRequestAlreadyReceived = newError(ErrConflict, "contact.request_received", "request already received")
	ErrRequestNotFound        = newError(ErrNotFound, "contact.request_not_found", "contact request not found")
	ErrMissingContactID       = newError(ErrInvalidInput, "contact.missing_id", "missing contact id")
)

// Message errors
var (
	ErrMissingPeer      = newError(ErrInvalidInput, "message.missing_peer", "missing peer")
	ErrReceiverNotFound = newError(ErrInvalidInput, "message.receiver_not_found", "receiver not found")
	ErrPayloadMismatch  = newError(ErrInvalidInput, "message.payload_mismatch", "payload does not match message type")
	ErrInvalidType      = newError(ErrInvalidInput, "message.invalid_type", "invalid message type")
	ErrMessageNotFound  = newError(ErrNotFound, "message.not_found", "message not found")
	ErrNotMessageOwner  = newError(ErrForbidden, "message.not_owner", "only the sender may modify a message")
	ErrNotParticipant   = newError(ErrForbidden, "message.not_participant", "not a participant of this conversation")
	ErrInvalidReply     = newError(ErrInvalidInput, "message.reply_invalid", "reply target is not in this conversation")
	ErrMissingMessageID = newError(ErrInvalidInput, "message.missing_id", "missing message id")
	ErrEmptyContent     = newError(ErrInvalidInput, "message.empty_content", "missing content")
)

// Profile errors
var (
	ErrNothingToUpdate = newError(ErrInvalidInput, "profile.nothing_to_update", "nothing to update")
	ErrUsernameTaken   = newError(ErrConflict, "profile.username_taken", "username already exists")
	ErrInvalidLockKey  = newError(ErrForbidden, "profile.lock_invalid", "invalid lock key")
	ErrLockNotSet      = newError(ErrNotFound, "profile.lock_not_set", "no lock key configured")
)

// Upload errors
var (
	ErrUnsupportedMedia = newError(ErrInvalidInput, "upload.type_not_allowed", "content type not allowed")
	ErrUploadTooLarge   = newError(ErrInvalidInput, "upload.too_large", "upload too large")
	ErrEmptyUpload      = newError(ErrInvalidInput, "upload.empty", "empty upload")
	ErrInvalidTarget    = newError(ErrInvalidInput, "upload.invalid_target", "invalid upload type")
	ErrStorageDisabled  = newError(ErrInvalidInput, "upload.storage_disabled", "storage is not configured")
)

// Admin errors
var (
	ErrInvalidAction = newError(ErrInvalidInput, "admin.invalid_action", "invalid action")
)

// StatusOf maps an error to its HTTP status
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// kindKey returns the generic translation key for a status
func kindKey(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "error.unauthorized"
	case http.StatusForbidden:
		return "error.forbidden"
	case http.StatusBadRequest:
		return "error.bad_request"
	case http.StatusNotFound:
		return "error.not_found"
	case http.StatusConflict:
		return "error.conflict"
	case http.StatusTooManyRequests:
		return "error.too_many_requests"
	default:
		return "error.internal"
	}
}
