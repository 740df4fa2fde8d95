package service

import (
	"context"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
)

// Identity maps internal user ids to the public ids clients see, and back
type Identity interface {
	ToPublicID(internalID string) string
	Resolve(ctx context.Context, idOrPublicID string) (string, bool, error)
}

// Notifier fans realtime events out to connected users. Delivery is best effort.
type Notifier interface {
	NotifyMessage(userIDs []string, event *domain.MessageEvent)
}

type nopNotifier struct{}

func (nopNotifier) NotifyMessage([]string, *domain.MessageEvent) {}

func participants(m *domain.Message) []string {
	if m.SenderID == m.ReceiverID {
		return []string{m.SenderID}
	}
	return []string{m.SenderID, m.ReceiverID}
}
