package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/repository"
)

// ContactService business logic for contacts and contact requests
type ContactService interface {
	List(ctx context.Context, userID string) ([]*domain.ContactResponse, error)
	Request(ctx context.Context, userID, target string) error
	Remove(ctx context.Context, userID, contact string) error
	SearchByPIN(ctx context.Context, userID, query string) ([]*domain.SearchResult, error)
	PendingRequests(ctx context.Context, userID string) ([]*domain.PendingRequest, error)
	Accept(ctx context.Context, userID, requester string) (*domain.ContactResponse, error)
	Reject(ctx context.Context, userID, requester string) error
}

type contactService struct {
	repo        repository.ContactRepository
	profileRepo repository.ProfileRepository
	messageRepo repository.MessageRepository
	identity    Identity
}

// NewContactService creates a new ContactService
func NewContactService(repo repository.ContactRepository, profileRepo repository.ProfileRepository, messageRepo repository.MessageRepository, identity Identity) ContactService {
	return &contactService{
		repo:        repo,
		profileRepo: profileRepo,
		messageRepo: messageRepo,
		identity:    identity,
	}
}

func (s *contactService) toContact(p *domain.Profile, unread int64) *domain.ContactResponse {
	return &domain.ContactResponse{
		ID:          s.identity.ToPublicID(p.ID),
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		UnreadMsgs:  unread,
	}
}

// List returns accepted contacts with their unread message counts
func (s *contactService) List(ctx context.Context, userID string) ([]*domain.ContactResponse, error) {
	ids, err := s.repo.ListContactIDs(ctx, userID, domain.ContactAccepted)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*domain.ContactResponse{}, nil
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	counts, err := s.messageRepo.ListUnreadCounts(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.ContactResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, s.toContact(p, counts[p.ID]))
	}
	return out, nil
}

// lookup accepts a public id, a raw UUID or a username
func (s *contactService) lookup(ctx context.Context, target string) (*domain.Profile, error) {
	id, ok, err := s.identity.Resolve(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("resolve contact: %w", err)
	}

	var p *domain.Profile
	if ok {
		p, err = s.profileRepo.FindByID(ctx, id)
	} else {
		p, err = s.profileRepo.FindByUsername(ctx, target)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	return p, nil
}

// Request sends a pending contact request
func (s *contactService) Request(ctx context.Context, userID, target string) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return common.ErrMissingContactID
	}

	p, err := s.lookup(ctx, target)
	if err != nil {
		return err
	}
	if p.ID == userID {
		return common.ErrSelfContact
	}

	edges, err := s.repo.FindBetween(ctx, userID, p.ID)
	if err != nil {
		return err
	}
	for _, e := range edges {
		switch {
		case e.Status == domain.ContactAccepted:
			return common.ErrAlreadyContact
		case e.UserID == userID:
			return common.ErrRequestAlreadySent
		default:
			return common.ErrRequestAlreadyReceived
		}
	}

	return s.repo.Create(ctx, &domain.Contact{
		UserID:    userID,
		ContactID: p.ID,
		Status:    domain.ContactPending,
	})
}

// Remove deletes the caller's edge only; the other side keeps theirs
func (s *contactService) Remove(ctx context.Context, userID, contact string) error {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return common.ErrMissingContactID
	}
	id, ok, err := s.identity.Resolve(ctx, contact)
	if err != nil {
		return fmt.Errorf("resolve contact: %w", err)
	}
	if !ok {
		return nil
	}
	_, err = s.repo.Delete(ctx, userID, id)
	return err
}

// SearchByPIN finds at most one unlinked user by exact PIN
func (s *contactService) SearchByPIN(ctx context.Context, userID, query string) ([]*domain.SearchResult, error) {
	pin := domain.NormalizePIN(query)
	if len(pin) != domain.PINLength {
		return []*domain.SearchResult{}, nil
	}

	linked, err := s.repo.ListLinkedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	exclude := append([]string{userID}, linked...)

	p, err := s.profileRepo.FindByPIN(ctx, pin, exclude)
	if err != nil {
		if repository.IsNotFound(err) {
			return []*domain.SearchResult{}, nil
		}
		return nil, err
	}
	return []*domain.SearchResult{{
		ID:          s.identity.ToPublicID(p.ID),
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		PIN:         p.PIN,
	}}, nil
}

// PendingRequests lists incoming requests
func (s *contactService) PendingRequests(ctx context.Context, userID string) ([]*domain.PendingRequest, error) {
	edges, err := s.repo.ListPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []*domain.PendingRequest{}, nil
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.UserID)
	}
	profiles, err := s.profileRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	out := make([]*domain.PendingRequest, 0, len(edges))
	for _, e := range edges {
		p, ok := byID[e.UserID]
		if !ok {
			continue
		}
		out = append(out, &domain.PendingRequest{
			ID:          s.identity.ToPublicID(p.ID),
			Username:    p.Username,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out, nil
}

func (s *contactService) resolveRequester(ctx context.Context, requester string) (string, error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return "", common.ErrMissingContactID
	}
	id, ok, err := s.identity.Resolve(ctx, requester)
	if err != nil {
		return "", fmt.Errorf("resolve requester: %w", err)
	}
	if !ok {
		return "", common.ErrRequestNotFound
	}
	return id, nil
}

// Accept makes requester and caller mutual contacts
func (s *contactService) Accept(ctx context.Context, userID, requester string) (*domain.ContactResponse, error) {
	requesterID, err := s.resolveRequester(ctx, requester)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Accept(ctx, userID, requesterID); err != nil {
		if repository.IsNotFound(err) {
			return nil, common.ErrRequestNotFound
		}
		return nil, err
	}

	p, err := s.profileRepo.FindByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	return s.toContact(p, 0), nil
}

// Reject drops a pending request without notifying the requester
func (s *contactService) Reject(ctx context.Context, userID, requester string) error {
	requesterID, err := s.resolveRequester(ctx, requester)
	if err != nil {
		if errors.Is(err, common.ErrRequestNotFound) {
			return nil
		}
		return err
	}
	_, err = s.repo.Reject(ctx, userID, requesterID)
	return err
}
