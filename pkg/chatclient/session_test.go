package chatclient

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal in-memory chat server speaking the same wire format
type fakeServer struct {
	mu      sync.Mutex
	self    string
	rows    map[string][]*domain.MessageResponse // by peer
	nextID  int64
	delays  map[string]time.Duration // GET /messages latency by peer
	conns   []*websocket.Conn
	typings []string
	srv     *httptest.Server
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fakeServer{
		self:   "me",
		rows:   map[string][]*domain.MessageResponse{},
		delays: map[string]time.Duration{},
	}
	upgrader := websocket.Upgrader{}

	r := gin.New()
	r.POST("/api/auth/login", func(c *gin.Context) {
		c.SetCookie("bb_token", "tok", 3600, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/api/auth/me", func(c *gin.Context) {
		if _, err := c.Cookie("bb_token"); err != nil {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": domain.ProfileResponse{ID: f.self, Username: "me"}})
	})
	r.GET("/api/messages", func(c *gin.Context) {
		peer := c.Query("peer")
		f.mu.Lock()
		delay := f.delays[peer]
		f.mu.Unlock()
		time.Sleep(delay)

		f.mu.Lock()
		rows := append([]*domain.MessageResponse(nil), f.rows[peer]...)
		f.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"ok": true, "messages": rows})
	})
	r.POST("/api/messages", func(c *gin.Context) {
		var req domain.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "bad json"})
			return
		}
		if req.Content != nil && *req.Content == "boom" {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal server error"})
			return
		}
		m := f.insert(f.self, req.ReceiverID, *req.Content)
		c.JSON(http.StatusOK, gin.H{"ok": true, "message": m})
	})
	r.DELETE("/api/messages", func(c *gin.Context) {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "only the sender may modify a message"})
	})
	r.GET("/ws", func(c *gin.Context) {
		if _, err := c.Cookie("bb_token"); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()
		go func() {
			for {
				var frame typingFrame
				if err := conn.ReadJSON(&frame); err != nil {
					return
				}
				f.mu.Lock()
				f.typings = append(f.typings, frame.To)
				f.mu.Unlock()
			}
		}()
	})

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) insert(from, to, text string) *domain.MessageResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m := row(f.nextID, from, to, text, time.Now())
	peer := to
	if to == f.self {
		peer = from
	}
	f.rows[peer] = append(f.rows[peer], m)
	return m
}

func (f *fakeServer) push(v interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		c.WriteJSON(v) //nolint:errcheck
	}
}

func (f *fakeServer) connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns) > 0
}

func (f *fakeServer) typingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.typings)
}

func loggedIn(t *testing.T, f *fakeServer) *Client {
	t.Helper()
	c, err := New(f.srv.URL)
	require.NoError(t, err)
	require.NoError(t, c.Login(t.Context(), "me", "pw"))
	return c
}

func openSession(t *testing.T, c *Client, peer string, opts Options) *Session {
	t.Helper()
	s, err := c.Open(t.Context(), peer, opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func viewOf(t *testing.T, s *Session) View {
	t.Helper()
	v, err := s.View()
	require.NoError(t, err)
	return v
}

func TestSessionRequiresLogin(t *testing.T) {
	f := newFakeServer(t)
	c, err := New(f.srv.URL)
	require.NoError(t, err)

	_, err = c.Open(t.Context(), "bob", Options{})
	assert.ErrorIs(t, err, ErrNotLoggedIn)
	_, err = c.DialEvents(t.Context())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSessionPollOnly(t *testing.T) {
	f := newFakeServer(t)
	f.insert("bob", "me", "hello")
	s := openSession(t, loggedIn(t, f), "bob", Options{PollInterval: 20 * time.Millisecond, DisablePush: true})

	require.Eventually(t, func() bool { return len(viewOf(t, s).Messages) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, StateReconciled, viewOf(t, s).State)

	// new rows show up without any push channel
	f.insert("bob", "me", "still there?")
	require.Eventually(t, func() bool { return len(viewOf(t, s).Messages) == 2 }, time.Second, 10*time.Millisecond)
}

func TestSessionSendCollapsesToOneEntry(t *testing.T) {
	f := newFakeServer(t)
	s := openSession(t, loggedIn(t, f), "bob", Options{PollInterval: time.Hour})
	require.Eventually(t, f.connected, time.Second, 5*time.Millisecond)

	tempID, err := s.SendText("hi bob")
	require.NoError(t, err)
	assert.True(t, domain.IsTempID(tempID))

	// the POST answer confirms the placeholder
	require.Eventually(t, func() bool {
		v := viewOf(t, s)
		return len(v.Messages) == 1 && v.Messages[0].ID > 0
	}, time.Second, 5*time.Millisecond)

	f.mu.Lock()
	stored := f.rows["bob"][0]
	f.mu.Unlock()
	// and the push of the same row is a duplicate
	f.push(gin.H{"type": "message", "payload": domain.MessageEvent{Event: domain.EventInsert, Message: stored}})

	time.Sleep(50 * time.Millisecond)
	v := viewOf(t, s)
	require.Len(t, v.Messages, 1)
	assert.False(t, v.Messages[0].Optimistic)
	assert.Equal(t, "hi bob", *v.Messages[0].Content)
}

func TestSessionFailedSendDroppedByPoll(t *testing.T) {
	f := newFakeServer(t)
	s := openSession(t, loggedIn(t, f), "bob", Options{PollInterval: 100 * time.Millisecond, DisablePush: true})

	_, err := s.SendText("boom")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		v := viewOf(t, s)
		return len(v.Messages) == 1 && v.Messages[0].Failed
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return len(viewOf(t, s).Messages) == 0 }, time.Second, 10*time.Millisecond)
}

func TestSessionRejectedDeleteIsRestored(t *testing.T) {
	f := newFakeServer(t)
	m := f.insert("bob", "me", "not yours")
	s := openSession(t, loggedIn(t, f), "bob", Options{PollInterval: 30 * time.Millisecond, DisablePush: true})
	require.Eventually(t, func() bool { return len(viewOf(t, s).Messages) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, s.Delete(strconv.FormatInt(m.ID, 10)))
	require.Eventually(t, func() bool {
		v := viewOf(t, s)
		return len(v.Messages) == 1 && !v.Messages[0].IsDeleted
	}, time.Second, 10*time.Millisecond)
}

func TestSessionPushTyping(t *testing.T) {
	f := newFakeServer(t)
	s := openSession(t, loggedIn(t, f), "bob", Options{
		PollInterval:   time.Hour,
		TypingTimeout:  80 * time.Millisecond,
		TypingThrottle: time.Hour,
	})
	require.Eventually(t, f.connected, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return viewOf(t, s).State != StateIdle }, time.Second, 5*time.Millisecond)

	f.push(gin.H{"type": "typing", "payload": domain.TypingEvent{From: "carol"}})
	f.push(gin.H{"type": "typing", "payload": domain.TypingEvent{From: "bob"}})
	require.Eventually(t, func() bool { return viewOf(t, s).PeerTyping }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !viewOf(t, s).PeerTyping }, time.Second, 10*time.Millisecond)

	// outgoing signals are throttled
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Typing())
	}
	require.Eventually(t, func() bool { return f.typingCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, f.typingCount())
}

func TestSessionSwitchDropsLateResults(t *testing.T) {
	f := newFakeServer(t)
	f.insert("bob", "me", "from bob")
	f.insert("carol", "me", "from carol")
	f.mu.Lock()
	f.delays["bob"] = 150 * time.Millisecond
	f.mu.Unlock()

	var (
		mu     sync.Mutex
		leaked bool
	)
	s := openSession(t, loggedIn(t, f), "bob", Options{
		PollInterval: time.Hour,
		DisablePush:  true,
		OnChange: func(v View) {
			mu.Lock()
			defer mu.Unlock()
			for _, m := range v.Messages {
				if m.SenderPublicID == "bob" && v.Peer == "carol" {
					leaked = true
				}
			}
		},
	})

	require.NoError(t, s.Switch("carol"))
	require.Eventually(t, func() bool { return len(viewOf(t, s).Messages) == 1 }, time.Second, 5*time.Millisecond)

	// give the slow bob response time to arrive and be discarded
	time.Sleep(250 * time.Millisecond)
	v := viewOf(t, s)
	assert.Equal(t, "carol", v.Peer)
	require.Len(t, v.Messages, 1)
	assert.Equal(t, "from carol", *v.Messages[0].Content)

	mu.Lock()
	assert.False(t, leaked)
	mu.Unlock()
}

func TestSessionClose(t *testing.T) {
	f := newFakeServer(t)
	s, err := loggedIn(t, f).Open(t.Context(), "bob", Options{PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	require.Eventually(t, f.connected, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	_, err = s.View()
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.SendText("late")
	assert.ErrorIs(t, err, ErrSessionClosed)
}
