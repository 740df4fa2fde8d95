package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/repository"
	"github.com/blackbox-chat/blackbox-backend/pkg/cache"
	pkglogger "github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/blackbox-chat/blackbox-backend/pkg/storage"
	"github.com/google/uuid"
)

// pinAttempts bounds PIN regeneration on collision
const pinAttempts = 8

// AdminService administration business logic
type AdminService interface {
	ListUsers(ctx context.Context) ([]*domain.AdminUserResponse, error)
	CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.AdminUserResponse, error)
	ApplyAction(ctx context.Context, adminID, target string, req *domain.AdminUserAction) error
	DeleteUser(ctx context.Context, adminID, target string) error
	System(ctx context.Context, action string) (int64, error)
}

type adminService struct {
	profileRepo repository.ProfileRepository
	messageRepo repository.MessageRepository
	store       storage.ObjectStore
	cache       cache.Service
	identity    Identity
}

// NewAdminService creates a new AdminService. store and cache may be nil.
func NewAdminService(
	profileRepo repository.ProfileRepository,
	messageRepo repository.MessageRepository,
	store storage.ObjectStore,
	cacheService cache.Service,
	identity Identity,
) AdminService {
	if cacheService == nil {
		cacheService = cache.NewService(nil)
	}
	return &adminService{
		profileRepo: profileRepo,
		messageRepo: messageRepo,
		store:       store,
		cache:       cacheService,
		identity:    identity,
	}
}

func (s *adminService) toAdminUser(p *domain.Profile) *domain.AdminUserResponse {
	return &domain.AdminUserResponse{
		ID:          p.ID,
		PublicID:    s.identity.ToPublicID(p.ID),
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		PIN:         p.PIN,
		IsAdmin:     p.IsAdmin,
		PassBlocked: p.PassBlocked,
	}
}

// ListUsers returns every profile ordered by username
func (s *adminService) ListUsers(ctx context.Context) ([]*domain.AdminUserResponse, error) {
	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.AdminUserResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, s.toAdminUser(p))
	}
	return out, nil
}

// uniquePIN draws PINs until one is free
func (s *adminService) uniquePIN(ctx context.Context) (string, error) {
	for i := 0; i < pinAttempts; i++ {
		pin, err := domain.NewPIN()
		if err != nil {
			return "", err
		}
		taken, err := s.profileRepo.ExistsByPIN(ctx, pin)
		if err != nil {
			return "", err
		}
		if !taken {
			return pin, nil
		}
	}
	return "", fmt.Errorf("no free pin after %d attempts", pinAttempts)
}

// CreateUser registers a new account with a fresh PIN
func (s *adminService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.AdminUserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, common.ErrMissingCredentials
	}

	taken, err := s.profileRepo.ExistsByUsername(ctx, username, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.ErrUsernameTaken
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	pin, err := s.uniquePIN(ctx)
	if err != nil {
		return nil, err
	}

	p := &domain.Profile{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  username,
		PasswordHash: hash,
		PIN:          pin,
	}
	if err := s.profileRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.toAdminUser(p), nil
}

func (s *adminService) resolveTarget(ctx context.Context, target string) (string, error) {
	id, ok, err := s.identity.Resolve(ctx, strings.TrimSpace(target))
	if err != nil {
		return "", fmt.Errorf("resolve user: %w", err)
	}
	if !ok {
		return "", common.ErrUserNotFound
	}
	return id, nil
}

// ApplyAction toggles flags or resets credentials of a user
func (s *adminService) ApplyAction(ctx context.Context, adminID, target string, req *domain.AdminUserAction) error {
	id, err := s.resolveTarget(ctx, target)
	if err != nil {
		return err
	}

	fields := map[string]interface{}{}
	switch req.Action {
	case domain.ActionToggleLock:
		v, ok := boolValue(req.Value)
		if !ok {
			return common.ErrValidation
		}
		fields["pass_blocked"] = v
	case domain.ActionToggleAdmin:
		v, ok := boolValue(req.Value)
		if !ok {
			return common.ErrValidation
		}
		if id == adminID && !v {
			return common.ErrInvalidAction
		}
		fields["is_admin"] = v
	case domain.ActionResetPassword:
		password, _ := req.Value.(string)
		hash, err := hashPassword(password)
		if err != nil {
			return err
		}
		fields["password_hash"] = hash
	case domain.ActionResetPIN:
		// the new PIN doubles as the app lock key
		pin, _ := req.Value.(string)
		pin = domain.NormalizePIN(pin)
		if pin == "" {
			if pin, err = s.uniquePIN(ctx); err != nil {
				return err
			}
		}
		if len(pin) != domain.PINLength {
			return common.ErrValidation
		}
		lockHash, err := hashSecret(pin)
		if err != nil {
			return err
		}
		fields["pin"] = pin
		fields["lock_key_hash"] = lockHash
	default:
		return common.ErrInvalidAction
	}

	if err := s.profileRepo.UpdateFields(ctx, id, fields); err != nil {
		if repository.IsNotFound(err) {
			return common.ErrUserNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// DeleteUser removes an account with its contacts and messages
func (s *adminService) DeleteUser(ctx context.Context, adminID, target string) error {
	id, err := s.resolveTarget(ctx, target)
	if err != nil {
		return err
	}
	if id == adminID {
		return common.ErrInvalidAction
	}

	if err := s.profileRepo.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return common.ErrUserNotFound
		}
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// System runs a global wipe and returns the number of affected rows or objects
func (s *adminService) System(ctx context.Context, action string) (int64, error) {
	switch action {
	case domain.ActionClearMessages:
		return s.messageRepo.DeleteAll(ctx)
	case domain.ActionClearStorage:
		if s.store == nil {
			return 0, common.ErrStorageDisabled
		}
		n, err := s.store.DeletePrefix(ctx, "")
		return int64(n), err
	default:
		return 0, common.ErrInvalidAction
	}
}

func (s *adminService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.InvalidateProfile(ctx, userID); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("user_id", userID).Msg("profile cache invalidation failed")
	}
}

// boolValue accepts JSON booleans and their string forms
func boolValue(v interface{}) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	default:
		return false, false
	}
}
