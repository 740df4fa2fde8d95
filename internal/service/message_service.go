package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/metrics"
	"github.com/blackbox-chat/blackbox-backend/internal/repository"
)

// MessageService business logic for conversations
type MessageService interface {
	List(ctx context.Context, userID, peer string) ([]*domain.MessageResponse, error)
	Send(ctx context.Context, senderID string, req *domain.SendMessageRequest) (*domain.MessageResponse, error)
	Edit(ctx context.Context, userID string, req *domain.EditMessageRequest) (*domain.MessageResponse, error)
	Delete(ctx context.Context, userID, rawID string) (*domain.MessageResponse, error)
	ClearConversation(ctx context.Context, userID, peer string) (int64, error)
	MarkRead(ctx context.Context, userID, peer string) (int64, error)
}

type messageService struct {
	repo        repository.MessageRepository
	profileRepo repository.ProfileRepository
	identity    Identity
	notifier    Notifier
	now         func() time.Time
}

// NewMessageService creates a new MessageService. notifier may be nil.
func NewMessageService(repo repository.MessageRepository, profileRepo repository.ProfileRepository, identity Identity, notifier Notifier) MessageService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &messageService{
		repo:        repo,
		profileRepo: profileRepo,
		identity:    identity,
		notifier:    notifier,
		now:         time.Now,
	}
}

// resolvePeer turns a public id (or raw UUID) into an existing internal id
func (s *messageService) resolvePeer(ctx context.Context, peer string, notFound error) (string, error) {
	peer = strings.TrimSpace(peer)
	if peer == "" {
		return "", common.ErrMissingPeer
	}
	id, ok, err := s.identity.Resolve(ctx, peer)
	if err != nil {
		return "", fmt.Errorf("resolve peer: %w", err)
	}
	if !ok {
		return "", notFound
	}
	if _, err := s.profileRepo.FindByID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return "", notFound
		}
		return "", err
	}
	return id, nil
}

func (s *messageService) toResponses(messages []*domain.Message) []*domain.MessageResponse {
	out := make([]*domain.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ToResponse(s.identity.ToPublicID))
	}
	return out
}

func (s *messageService) publish(kind domain.EventKind, m *domain.Message) {
	s.notifier.NotifyMessage(participants(m), &domain.MessageEvent{
		Event:   kind,
		Message: m.ToResponse(s.identity.ToPublicID),
	})
	metrics.PushEvents.WithLabelValues(string(kind)).Inc()
}

// List returns the a↔peer conversation. An unknown peer has no messages.
func (s *messageService) List(ctx context.Context, userID, peer string) ([]*domain.MessageResponse, error) {
	peerID, err := s.resolvePeer(ctx, peer, common.ErrUserNotFound)
	if errors.Is(err, common.ErrUserNotFound) {
		return []*domain.MessageResponse{}, nil
	}
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListConversation(ctx, userID, peerID, s.now())
	if err != nil {
		return nil, err
	}
	return s.toResponses(messages), nil
}

// Send appends a message. Only the body field matching message_type is stored.
func (s *messageService) Send(ctx context.Context, senderID string, req *domain.SendMessageRequest) (*domain.MessageResponse, error) {
	receiverID, err := s.resolvePeer(ctx, req.ReceiverID, common.ErrReceiverNotFound)
	if err != nil {
		return nil, err
	}

	payload, err := domain.PayloadFromRequest(req)
	switch {
	case errors.Is(err, domain.ErrUnknownMessageType):
		return nil, common.ErrInvalidType
	case err != nil:
		return nil, common.ErrPayloadMismatch
	}

	msg := &domain.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  s.now(),
		ExpiresAt:  req.ExpiresAt,
	}
	payload.Apply(msg)

	if req.ReplyToID != nil {
		target, err := s.repo.FindByID(ctx, *req.ReplyToID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, common.ErrInvalidReply
			}
			return nil, err
		}
		if !target.Involves(senderID) || !target.Involves(receiverID) {
			return nil, common.ErrInvalidReply
		}
		msg.ReplyToID = req.ReplyToID
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesAppended.WithLabelValues(string(msg.MessageType)).Inc()

	s.publish(domain.EventInsert, msg)
	return msg.ToResponse(s.identity.ToPublicID), nil
}

// findOwned loads a message the user sent
func (s *messageService) findOwned(ctx context.Context, userID string, id int64) (*domain.Message, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, common.ErrMessageNotFound
		}
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, common.ErrNotMessageOwner
	}
	return msg, nil
}

// Edit replaces the text of the caller's own message. Deleted rows are left as is.
func (s *messageService) Edit(ctx context.Context, userID string, req *domain.EditMessageRequest) (*domain.MessageResponse, error) {
	if req.ID == 0 {
		return nil, common.ErrMissingMessageID
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, common.ErrEmptyContent
	}
	if len(req.Content) > domain.MaxContentLength {
		return nil, common.ErrPayloadMismatch
	}

	msg, err := s.findOwned(ctx, userID, req.ID)
	if err != nil {
		return nil, err
	}
	if msg.IsDeleted {
		return msg.ToResponse(s.identity.ToPublicID), nil
	}
	if msg.MessageType != domain.MessageTypeText {
		return nil, common.ErrInvalidType
	}

	if err := s.repo.UpdateContent(ctx, msg.ID, req.Content); err != nil {
		return nil, err
	}
	content := req.Content
	msg.Content = &content
	msg.IsEdited = true

	s.publish(domain.EventUpdate, msg)
	return msg.ToResponse(s.identity.ToPublicID), nil
}

// Delete soft-deletes the caller's own message. Temporary client ids are ignored
// and return a nil message.
func (s *messageService) Delete(ctx context.Context, userID, rawID string) (*domain.MessageResponse, error) {
	rawID = strings.TrimSpace(rawID)
	if domain.IsTempID(rawID) {
		return nil, nil
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return nil, common.ErrMissingMessageID
	}

	msg, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if msg.IsDeleted {
		return msg.ToResponse(s.identity.ToPublicID), nil
	}

	if err := s.repo.SoftDelete(ctx, msg.ID); err != nil {
		return nil, err
	}
	msg.Redact("")

	s.publish(domain.EventUpdate, msg)
	return msg.ToResponse(s.identity.ToPublicID), nil
}

// ClearConversation soft-deletes every message between the caller and peer
func (s *messageService) ClearConversation(ctx context.Context, userID, peer string) (int64, error) {
	peerID, err := s.resolvePeer(ctx, peer, common.ErrUserNotFound)
	if err != nil {
		return 0, err
	}

	before, err := s.repo.ListConversation(ctx, userID, peerID, s.now())
	if err != nil {
		return 0, err
	}
	n, err := s.repo.SoftDeleteConversation(ctx, userID, peerID)
	if err != nil {
		return 0, err
	}

	for _, m := range before {
		if m.IsDeleted {
			continue
		}
		m.Redact("")
		s.publish(domain.EventUpdate, m)
	}
	return n, nil
}

// MarkRead flags every message peer → caller as read
func (s *messageService) MarkRead(ctx context.Context, userID, peer string) (int64, error) {
	peerID, err := s.resolvePeer(ctx, peer, common.ErrUserNotFound)
	if err != nil {
		return 0, err
	}

	before, err := s.repo.ListConversation(ctx, userID, peerID, s.now())
	if err != nil {
		return 0, err
	}
	n, err := s.repo.MarkRead(ctx, userID, peerID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}

	for _, m := range before {
		if m.SenderID != peerID || m.ReceiverID != userID || m.IsRead {
			continue
		}
		m.IsRead = true
		s.publish(domain.EventUpdate, m)
	}
	return n, nil
}
