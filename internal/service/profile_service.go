package service

import (
	"context"
	"errors"
	"strings"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/repository"
	"github.com/blackbox-chat/blackbox-backend/pkg/cache"
	pkglogger "github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ProfileService business logic for the caller's own profile and app lock
type ProfileService interface {
	Update(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.ProfileResponse, error)
	ChangePassword(ctx context.Context, userID string, req *domain.ChangePasswordRequest) error
	SetLockKey(ctx context.Context, userID, lockKey string) error
	SetAppLock(ctx context.Context, userID string, lockKey *string) error
	VerifyLock(ctx context.Context, userID, lockKey string) (bool, error)
	Avatar(ctx context.Context, userID string) (*string, error)
	Nuke(ctx context.Context, userID string) (int64, error)
	Flags(ctx context.Context, userID string) (*cache.ProfileFlags, error)
}

type profileService struct {
	repo     repository.ProfileRepository
	cache    cache.Service
	identity Identity
}

// NewProfileService creates a new ProfileService. cache may be nil.
func NewProfileService(repo repository.ProfileRepository, cacheService cache.Service, identity Identity) ProfileService {
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	return &profileService{
		repo:     repo,
		cache:    cacheService,
		identity: identity,
	}
}

func (s *profileService) find(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	return p, nil
}

// Update changes username, avatar or display name
func (s *profileService) Update(ctx context.Context, userID string, req *domain.UpdateProfileRequest) (*domain.ProfileResponse, error) {
	if req.Empty() {
		return nil, common.ErrNothingToUpdate
	}
	if err := validate.Struct(req); err != nil {
		return nil, common.ErrValidation
	}

	fields := make(map[string]interface{}, 3)
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		taken, err := s.repo.ExistsByUsername(ctx, username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, common.ErrUsernameTaken
		}
		fields["username"] = username
	}
	if req.AvatarURL != nil {
		if *req.AvatarURL == "" {
			fields["avatar_url"] = nil
		} else {
			fields["avatar_url"] = *req.AvatarURL
		}
	}
	if req.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*req.DisplayName)
	}

	if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
		if repository.IsNotFound(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}

	p, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.ToResponse(s.identity.ToPublicID(p.ID)), nil
}

// ChangePassword replaces the password after verifying the current one
func (s *profileService) ChangePassword(ctx context.Context, userID string, req *domain.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return common.ErrValidation
	}

	p, err := s.find(ctx, userID)
	if err != nil {
		return err
	}
	if !checkSecret(p.PasswordHash, req.CurrentPassword) {
		return common.ErrWrongPassword
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": hash})
}

// SetLockKey stores the app lock key hash
func (s *profileService) SetLockKey(ctx context.Context, userID, lockKey string) error {
	if lockKey == "" {
		return common.ErrValidation
	}
	return s.SetAppLock(ctx, userID, &lockKey)
}

// SetAppLock sets the lock key, or removes it when lockKey is nil or empty
func (s *profileService) SetAppLock(ctx context.Context, userID string, lockKey *string) error {
	var value interface{}
	if lockKey != nil && *lockKey != "" {
		hash, err := hashSecret(*lockKey)
		if err != nil {
			return err
		}
		value = hash
	}

	err := s.repo.UpdateFields(ctx, userID, map[string]interface{}{"lock_key_hash": value})
	if repository.IsNotFound(err) {
		return common.ErrUserNotFound
	}
	return err
}

// VerifyLock reports whether lockKey matches the stored lock
func (s *profileService) VerifyLock(ctx context.Context, userID, lockKey string) (bool, error) {
	if lockKey == "" {
		return false, common.ErrValidation
	}
	p, err := s.find(ctx, userID)
	if err != nil {
		return false, err
	}
	if p.LockKeyHash == nil || *p.LockKeyHash == "" {
		return false, common.ErrLockNotSet
	}
	return checkSecret(*p.LockKeyHash, lockKey), nil
}

func (s *profileService) Avatar(ctx context.Context, userID string) (*string, error) {
	p, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	return p.AvatarURL, nil
}

// Nuke wipes every message of the caller and blocks the account for good
func (s *profileService) Nuke(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.Nuke(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, common.ErrUserNotFound
		}
		return 0, err
	}
	if err := s.cache.InvalidateProfile(ctx, userID); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidation failed")
	}
	return n, nil
}

// Flags returns the authorization flags of a profile, cached briefly
func (s *profileService) Flags(ctx context.Context, userID string) (*cache.ProfileFlags, error) {
	flags, err := s.cache.GetProfileFlags(ctx, userID)
	if err == nil {
		return flags, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		pkglogger.GetLogger().Warn().Err(err).Msg("profile flags cache read failed")
	}

	p, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	flags = &cache.ProfileFlags{IsAdmin: p.IsAdmin, PassBlocked: p.PassBlocked}
	_ = s.cache.SetProfileFlags(ctx, userID, flags)
	return flags, nil
}
