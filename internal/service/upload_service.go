package service

import (
	"bytes"
	"context"
	"mime"
	"strings"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/pkg/storage"
)

// Upload targets
const (
	UploadAvatar = "avatar"
	UploadChat   = "chat"
)

// allowedMedia maps accepted content types to object key extensions
var allowedMedia = map[string]string{
	"image/png":   ".png",
	"image/jpeg":  ".jpg",
	"image/gif":   ".gif",
	"image/webp":  ".webp",
	"audio/webm":  ".webm",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/ogg":   ".ogg",
	"audio/wav":   ".wav",
	"audio/mp4":   ".mp4",
	"audio/x-m4a": ".m4a",
}

// UploadService stores avatars and chat media
type UploadService interface {
	Upload(ctx context.Context, userID, target, contentType string, data []byte) (*storage.UploadResult, error)
	MaxBytes() int64
}

type uploadService struct {
	store    storage.ObjectStore
	maxBytes int64
	now      func() time.Time
}

// NewUploadService creates a new UploadService. store may be nil when storage is disabled.
func NewUploadService(store storage.ObjectStore, maxBytes int64) UploadService {
	return &uploadService{
		store:    store,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *uploadService) MaxBytes() int64 {
	return s.maxBytes
}

// MediaExtension returns the key extension for an allowed content type
func MediaExtension(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	ext, ok := allowedMedia[strings.ToLower(mediaType)]
	return ext, ok
}

// Upload stores data under avatars/<uid>/ or messages/<uid>/
func (s *uploadService) Upload(ctx context.Context, userID, target, contentType string, data []byte) (*storage.UploadResult, error) {
	var folder string
	switch target {
	case "", UploadAvatar:
		folder = "avatars"
	case UploadChat:
		folder = "messages"
	default:
		return nil, common.ErrInvalidTarget
	}

	ext, ok := MediaExtension(contentType)
	if !ok {
		return nil, common.ErrUnsupportedMedia
	}
	if len(data) == 0 {
		return nil, common.ErrEmptyUpload
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, common.ErrUploadTooLarge
	}
	if s.store == nil {
		return nil, common.ErrStorageDisabled
	}

	key := storage.GenerateKey(folder, userID, ext, s.now())
	mediaType, _, _ := mime.ParseMediaType(contentType)
	return s.store.Upload(ctx, key, bytes.NewReader(data), mediaType, int64(len(data)))
}
