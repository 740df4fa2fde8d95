package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/metrics"
	pkglogger "github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/google/uuid"
)

// Event types
const (
	EventMessage = "message"
	EventTyping  = "typing"
)

// Event represents a real-time event sent via WebSocket
type Event struct {
	Type    string      `json:"type"`    // "message", "typing"
	Payload interface{} `json:"payload"` // event-specific data
}

// Identity resolves the public ids used in client frames
type Identity interface {
	ToPublicID(internalID string) string
	Resolve(ctx context.Context, idOrPublicID string) (string, bool, error)
}

// Hub manages WebSocket clients and routes events to users
type Hub struct {
	// Registered clients grouped by user ID
	clients map[string]map[*Client]bool

	// Register/unregister channels
	register   chan *Client
	unregister chan *Client

	// Delivery to a specific user on this instance
	broadcast chan *targetedEvent

	// Envelopes waiting for the broker; full means dropped
	outbound chan []byte

	mu       sync.RWMutex
	broker   Broker
	identity Identity
	origin   string
	ctx      context.Context
	cancel   context.CancelFunc
}

type targetedEvent struct {
	UserID string
	Data   []byte
}

// envelope is what instances exchange through the broker
type envelope struct {
	Origin string          `json:"origin"`
	UserID string          `json:"user_id"`
	Event  json.RawMessage `json:"event"`
}

// NewHub creates a new Hub. broker may be nil for a single instance.
func NewHub(broker Broker, identity Identity) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *targetedEvent, 256),
		outbound:   make(chan []byte, 256),
		broker:     broker,
		identity:   identity,
		origin:     uuid.New().String(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	if h.broker != nil {
		go h.subscribe()
		go h.publish()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			metrics.WSConnections.Inc()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.ctx.Done():
			h.closeAll()
			return
		}
	}
}

// remove drops a client and closes its send channel exactly once
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	metrics.WSConnections.Dec()
}

func (h *Hub) deliver(msg *targetedEvent) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.clients[msg.UserID] {
		select {
		case client.send <- msg.Data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// 버퍼가 가득 찬 클라이언트는 연결 종료
	for _, client := range slow {
		h.remove(client)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, clients := range h.clients {
		for client := range clients {
			close(client.send)
			metrics.WSConnections.Dec()
		}
		delete(h.clients, userID)
	}
}

// SendToUser sends an event to every connection of a user. Local delivery is
// queued on the hub loop and the broker copy on the publisher, so it never
// waits on the network.
func (h *Hub) SendToUser(userID string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("type", event.Type).Msg("ws event marshal failed")
		return
	}
	h.enqueue(userID, data)

	if h.broker != nil {
		env, err := json.Marshal(&envelope{Origin: h.origin, UserID: userID, Event: data})
		if err != nil {
			return
		}
		select {
		case h.outbound <- env:
		default:
			metrics.BrokerDropped.Inc()
			pkglogger.GetLogger().Warn().Str("type", event.Type).Msg("ws broker queue full, event dropped")
		}
	}
}

// publish drains outbound to the broker. Polling covers anything lost here.
func (h *Hub) publish() {
	for {
		select {
		case env := <-h.outbound:
			ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
			if err := h.broker.Publish(ctx, env); err != nil {
				pkglogger.GetLogger().Warn().Err(err).Msg("ws broker publish failed")
			}
			cancel()
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) enqueue(userID string, data []byte) {
	select {
	case h.broadcast <- &targetedEvent{UserID: userID, Data: data}:
	case <-h.ctx.Done():
	}
}

// NotifyMessage pushes a message event to each participant
func (h *Hub) NotifyMessage(userIDs []string, event *domain.MessageEvent) {
	for _, id := range userIDs {
		h.SendToUser(id, &Event{Type: EventMessage, Payload: event})
	}
}

// relayTyping forwards a typing signal from one user to a peer public id
func (h *Hub) relayTyping(fromUserID, toPublicID string) {
	if h.identity == nil || toPublicID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(h.ctx, 2*time.Second)
	defer cancel()

	peerID, ok, err := h.identity.Resolve(ctx, toPublicID)
	if err != nil || !ok || peerID == fromUserID {
		return
	}
	h.SendToUser(peerID, &Event{
		Type:    EventTyping,
		Payload: &domain.TypingEvent{From: h.identity.ToPublicID(fromUserID)},
	})
	metrics.PushEvents.WithLabelValues(EventTyping).Inc()
}

// subscribe listens for events published by other instances
func (h *Hub) subscribe() {
	err := h.broker.Subscribe(h.ctx, func(data []byte) {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return
		}
		// own publishes were already delivered locally
		if env.Origin == h.origin {
			return
		}
		h.enqueue(env.UserID, env.Event)
	})
	if err != nil {
		pkglogger.GetLogger().Error().Err(err).Msg("ws broker subscription ended")
	}
}

// Connected reports how many connections a user has on this instance
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
	if h.broker != nil {
		h.broker.Close() //nolint:errcheck
	}
}
