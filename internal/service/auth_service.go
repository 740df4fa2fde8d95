package service

import (
	"context"
	"strings"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/repository"
	"github.com/blackbox-chat/blackbox-backend/pkg/jwt"
)

// AuthService authentication business logic
type AuthService interface {
	Login(ctx context.Context, req *domain.LoginRequest) (string, error)
	Me(ctx context.Context, userID string) (*domain.ProfileResponse, error)
}

type authService struct {
	profileRepo repository.ProfileRepository
	jwtManager  *jwt.Manager
	identity    Identity
}

// NewAuthService creates a new AuthService
func NewAuthService(profileRepo repository.ProfileRepository, jwtManager *jwt.Manager, identity Identity) AuthService {
	return &authService{
		profileRepo: profileRepo,
		jwtManager:  jwtManager,
		identity:    identity,
	}
}

// Login verifies credentials and issues a session token
func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return "", common.ErrMissingCredentials
	}

	profile, err := s.profileRepo.FindByUsername(ctx, username)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", common.ErrInvalidCredentials
		}
		return "", err
	}

	if !checkSecret(profile.PasswordHash, req.Password) {
		return "", common.ErrInvalidCredentials
	}
	if profile.PassBlocked {
		return "", common.ErrAccountBlocked
	}

	return s.jwtManager.GenerateToken(profile.ID)
}

// Me returns the caller's profile, or nil when it no longer exists
func (s *authService) Me(ctx context.Context, userID string) (*domain.ProfileResponse, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return profile.ToResponse(s.identity.ToPublicID(profile.ID)), nil
}
