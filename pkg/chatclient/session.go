package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	pkglogger "github.com/blackbox-chat/blackbox-backend/pkg/logger"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// DefaultPollInterval is the conversation refresh period
const DefaultPollInterval = 2 * time.Second

const typingWriteWait = time.Second

// ErrSessionClosed is returned by calls on a closed Session
var ErrSessionClosed = errors.New("chatclient: session closed")

// State of a conversation view
type State int

const (
	StateIdle State = iota
	StateSubscribed
	StateReconciled
)

func (s State) String() string {
	switch s {
	case StateSubscribed:
		return "SUBSCRIBED"
	case StateReconciled:
		return "RECONCILED"
	default:
		return "IDLE"
	}
}

// Options configures a Session. Zero values use the defaults.
type Options struct {
	PollInterval   time.Duration
	TypingThrottle time.Duration
	TypingTimeout  time.Duration
	// DisablePush skips the websocket channel; the view then relies on polling only
	DisablePush bool
	// OnChange runs on the event loop after every visible change.
	// It must not call back into the Session.
	OnChange func(View)
}

// View is a snapshot of a Session
type View struct {
	Peer       string
	State      State
	Messages   []Entry
	PeerTyping bool
}

// events fed to the loop
type (
	pollEvent struct {
		peer string
		rows []*domain.MessageResponse
		err  error
	}
	pushEvent struct {
		kind domain.EventKind
		msg  *domain.MessageResponse
	}
	typingEvent struct {
		from string
	}
	sendEvent struct {
		peer   string
		tempID string
		msg    *domain.MessageResponse
		err    error
	}
	deleteEvent struct {
		peer string
		id   int64
		err  error
	}
	subscribedEvent struct {
		conn *websocket.Conn
	}
	callEvent struct {
		fn func()
	}
)

type unsubscribedEvent struct{}

// inboundEvent is a server → client push frame
type inboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Session is a live view of one conversation. Poll results and push events
// are merged by a single event loop goroutine, which owns every field
// marked loop-owned.
type Session struct {
	client *Client
	self   string
	opts   Options
	log    zerolog.Logger

	events chan interface{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	// loop-owned
	conv        *Conversation
	state       State
	conn        *websocket.Conn
	polling     bool
	throttle    *Throttle
	presence    *Presence
	typingTimer *time.Timer
	now         func() time.Time
}

// Open starts a Session on the conversation with peer (public id).
// The caller must be logged in; Close releases every goroutine and timer.
func (c *Client) Open(ctx context.Context, peer string, opts Options) (*Session, error) {
	me, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}
	if me == nil {
		return nil, ErrNotLoggedIn
	}

	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.TypingThrottle == 0 {
		opts.TypingThrottle = DefaultTypingThrottle
	}

	sctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		client:   c,
		self:     me.ID,
		opts:     opts,
		log:      pkglogger.WithComponent("chatclient"),
		events:   make(chan interface{}, 64),
		ctx:      sctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		conv:     NewConversation(me.ID, peer),
		throttle: NewThrottle(opts.TypingThrottle),
		presence: NewPresence(opts.TypingTimeout),
		now:      time.Now,
	}

	if !opts.DisablePush {
		s.wg.Add(1)
		go s.subscribe()
	}
	go s.loop()
	return s, nil
}

// Self returns the caller's public id
func (s *Session) Self() string {
	return s.self
}

// Close stops polling, drops the push channel and the typing timer
func (s *Session) Close() {
	s.cancel()
	<-s.done
	s.wg.Wait()
}

// post hands ev to the loop unless the session is closing
func (s *Session) post(ev interface{}) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// call runs fn on the loop and waits for it
func (s *Session) call(fn func()) error {
	finished := make(chan struct{})
	if !s.post(callEvent{fn: func() { fn(); close(finished) }}) {
		return ErrSessionClosed
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

func (s *Session) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	s.startPoll()
	for {
		var typingC <-chan time.Time
		if s.typingTimer != nil {
			typingC = s.typingTimer.C
		}

		select {
		case <-s.ctx.Done():
			s.shutdown()
			return
		case <-ticker.C:
			s.startPoll()
		case <-typingC:
			s.typingTimer = nil
			if !s.presence.Active(s.now()) {
				s.presence.Clear()
				s.notify()
			}
		case ev := <-s.events:
			s.handle(ev)
		}
	}
}

func (s *Session) shutdown() {
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.conn = nil
}

// startPoll fetches the canonical list in the background; one fetch at a time
func (s *Session) startPoll() {
	if s.polling {
		return
	}
	s.polling = true
	peer := s.conv.Peer()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		rows, err := s.client.Messages(s.ctx, peer)
		s.post(pollEvent{peer: peer, rows: rows, err: err})
	}()
}

// handle is the single reconciliation point for every source
func (s *Session) handle(ev interface{}) {
	switch e := ev.(type) {
	case callEvent:
		e.fn()

	case pollEvent:
		if e.peer != s.conv.Peer() {
			return
		}
		s.polling = false
		if e.err != nil {
			s.log.Debug().Err(e.err).Str("peer", e.peer).Msg("poll failed")
			return
		}
		s.conv.ApplyPoll(e.rows)
		s.state = StateReconciled
		s.notify()

	case pushEvent:
		if !s.conv.Belongs(e.msg) {
			return
		}
		s.conv.ApplyPush(e.kind, e.msg)
		s.state = StateReconciled
		s.notify()

	case sendEvent:
		if e.peer != s.conv.Peer() {
			return
		}
		if e.err != nil {
			s.log.Debug().Err(e.err).Str("temp_id", e.tempID).Msg("send failed")
			s.conv.MarkFailed(e.tempID)
		} else {
			s.conv.Confirm(e.tempID, e.msg)
		}
		s.notify()

	case deleteEvent:
		if e.peer != s.conv.Peer() || e.err == nil {
			return
		}
		// the next poll restores the row
		s.conv.ForgetDelete(e.id)

	case typingEvent:
		if e.from != s.conv.Peer() {
			return
		}
		deadline := s.presence.Signal(s.now())
		if s.typingTimer != nil {
			s.typingTimer.Stop()
		}
		s.typingTimer = time.NewTimer(deadline.Sub(s.now()))
		s.notify()

	case subscribedEvent:
		s.conn = e.conn
		if s.state == StateIdle {
			s.state = StateSubscribed
		}
		s.notify()

	case unsubscribedEvent:
		// push is best effort; polling carries on
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
	}
}

func (s *Session) view() View {
	return View{
		Peer:       s.conv.Peer(),
		State:      s.state,
		Messages:   s.conv.Entries(),
		PeerTyping: s.presence.Active(s.now()),
	}
}

func (s *Session) notify() {
	if s.opts.OnChange != nil {
		s.opts.OnChange(s.view())
	}
}

// subscribe dials the push channel and forwards frames until it drops
func (s *Session) subscribe() {
	defer s.wg.Done()

	conn, err := s.client.DialEvents(s.ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("push unavailable, polling only")
		return
	}
	stop := context.AfterFunc(s.ctx, func() { conn.Close() })
	defer stop()
	if !s.post(subscribedEvent{conn: conn}) {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.post(unsubscribedEvent{})
			return
		}

		var frame inboundEvent
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		switch frame.Type {
		case "message":
			var ev domain.MessageEvent
			if err := json.Unmarshal(frame.Payload, &ev); err != nil || ev.Message == nil {
				continue
			}
			s.post(pushEvent{kind: ev.Event, msg: ev.Message})
		case "typing":
			var ev domain.TypingEvent
			if err := json.Unmarshal(frame.Payload, &ev); err != nil {
				continue
			}
			s.post(typingEvent{from: ev.From})
		}
	}
}

// View returns the current snapshot
func (s *Session) View() (View, error) {
	var v View
	err := s.call(func() { v = s.view() })
	return v, err
}

// Switch points the session at another peer. Results still in flight for
// the previous peer are discarded when they arrive.
func (s *Session) Switch(peer string) error {
	return s.call(func() {
		if peer == s.conv.Peer() {
			return
		}
		s.conv = NewConversation(s.self, peer)
		s.polling = false
		s.presence.Clear()
		s.throttle.Reset()
		if s.conn != nil {
			s.state = StateSubscribed
		} else {
			s.state = StateIdle
		}
		s.notify()
		s.startPoll()
	})
}

// Send inserts an optimistic entry and posts req to the current peer.
// It returns the temporary id; the outcome arrives through the view.
func (s *Session) Send(req domain.SendMessageRequest) (string, error) {
	var (
		tempID string
		err    error
	)
	callErr := s.call(func() {
		peer := s.conv.Peer()
		req.ReceiverID = peer

		var e *Entry
		e, err = s.conv.AddOptimistic(&req, s.now())
		if err != nil {
			return
		}
		tempID = e.TempID
		s.notify()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			msg, sendErr := s.client.Send(s.ctx, &req)
			s.post(sendEvent{peer: peer, tempID: tempID, msg: msg, err: sendErr})
		}()
	})
	if callErr != nil {
		return "", callErr
	}
	return tempID, err
}

// SendText is Send for a plain text message
func (s *Session) SendText(text string) (string, error) {
	return s.Send(domain.SendMessageRequest{
		MessageType: domain.MessageTypeText,
		Content:     &text,
	})
}

// Delete removes an entry by key (row id or temp id). Temporary entries
// never reach the network.
func (s *Session) Delete(key string) error {
	return s.call(func() {
		id, remote := s.conv.LocalDelete(key)
		s.notify()
		if !remote {
			return
		}
		peer := s.conv.Peer()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_, err := s.client.Delete(s.ctx, id)
			s.post(deleteEvent{peer: peer, id: id, err: err})
		}()
	})
}

// Edit replaces the text of an own message by key. Editing a temporary entry
// removes it locally.
func (s *Session) Edit(key, content string) error {
	return s.call(func() {
		id, remote := s.conv.LocalEdit(key, content)
		s.notify()
		if !remote {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			msg, err := s.client.Edit(s.ctx, id, content)
			if err != nil {
				s.log.Debug().Err(err).Int64("id", id).Msg("edit failed")
				return
			}
			s.post(pushEvent{kind: domain.EventUpdate, msg: msg})
		}()
	})
}

// Typing signals the peer, at most once per throttle interval. It is a no-op
// without a push channel.
func (s *Session) Typing() error {
	return s.call(func() {
		if s.conn == nil || !s.throttle.Allow(s.now()) {
			return
		}
		s.conn.SetWriteDeadline(s.now().Add(typingWriteWait)) //nolint:errcheck
		if err := s.conn.WriteJSON(typingFrame{Type: "typing", To: s.conv.Peer()}); err != nil {
			s.log.Debug().Err(err).Msg("typing signal dropped")
		}
	})
}
