package chatclient

import (
	"strconv"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/google/uuid"
)

// Entry is one visible message. Server rows have ID > 0; optimistic rows
// carry a TempID instead until a matching server row replaces them.
type Entry struct {
	domain.MessageResponse
	TempID     string `json:"temp_id,omitempty"`
	Optimistic bool   `json:"optimistic,omitempty"`
	Failed     bool   `json:"failed,omitempty"`
}

// Key identifies an entry for Edit/Delete: the temp id or the decimal row id
func (e *Entry) Key() string {
	if e.TempID != "" {
		return e.TempID
	}
	return strconv.FormatInt(e.ID, 10)
}

// body is the field that decides whether two messages are the same send
func body(m *domain.MessageResponse) string {
	switch m.MessageType {
	case domain.MessageTypeImage:
		return deref(m.ImageURL)
	case domain.MessageTypeSticker:
		return deref(m.StickerURL)
	case domain.MessageTypeAudio:
		return deref(m.AudioURL)
	default:
		return deref(m.Content)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// sameSend reports whether an optimistic entry and a server row describe the same send
func sameSend(e *Entry, m *domain.MessageResponse) bool {
	return e.SenderPublicID == m.SenderPublicID &&
		e.ReceiverPublicID == m.ReceiverPublicID &&
		e.MessageType == m.MessageType &&
		body(&e.MessageResponse) == body(m)
}

// confirms reports whether server row m is the delivery of optimistic entry e.
// The row must not predate the placeholder, so an older identical message
// never swallows a new send.
func confirms(e *Entry, m *domain.MessageResponse) bool {
	return sameSend(e, m) && !m.CreatedAt.Before(e.CreatedAt.Add(-clockSkew))
}

// Conversation is the client-side message list of one peer.
// It is not safe for concurrent use; Session serializes access through its event loop.
type Conversation struct {
	self    string
	peer    string
	entries []*Entry
	// row ids deleted locally and not yet confirmed by a poll
	deleted map[int64]bool
}

// NewConversation creates an empty view of the self↔peer conversation (public ids)
func NewConversation(self, peer string) *Conversation {
	return &Conversation{
		self:    self,
		peer:    peer,
		deleted: make(map[int64]bool),
	}
}

// Peer returns the public id of the other participant
func (c *Conversation) Peer() string {
	return c.peer
}

// Belongs reports whether m is part of this conversation
func (c *Conversation) Belongs(m *domain.MessageResponse) bool {
	if m == nil {
		return false
	}
	return (m.SenderPublicID == c.self && m.ReceiverPublicID == c.peer) ||
		(m.SenderPublicID == c.peer && m.ReceiverPublicID == c.self)
}

// Entries returns a copy of the visible list
func (c *Conversation) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	return out
}

func (c *Conversation) indexOf(key string) int {
	for i, e := range c.entries {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

func (c *Conversation) indexOfID(id int64) int {
	for i, e := range c.entries {
		if e.TempID == "" && e.ID == id {
			return i
		}
	}
	return -1
}

func (c *Conversation) removeAt(i int) {
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
}

// AddOptimistic inserts a provisional entry for req and returns it
func (c *Conversation) AddOptimistic(req *domain.SendMessageRequest, now time.Time) (*Entry, error) {
	payload, err := domain.PayloadFromRequest(req)
	if err != nil {
		return nil, err
	}
	var m domain.Message
	payload.Apply(&m)

	e := &Entry{
		MessageResponse: domain.MessageResponse{
			SenderPublicID:   c.self,
			ReceiverPublicID: c.peer,
			Content:          m.Content,
			MessageType:      m.MessageType,
			ImageURL:         m.ImageURL,
			StickerURL:       m.StickerURL,
			AudioURL:         m.AudioURL,
			ReplyToID:        req.ReplyToID,
			CreatedAt:        now,
			ExpiresAt:        req.ExpiresAt,
		},
		TempID:     domain.TempIDPrefix + uuid.NewString(),
		Optimistic: true,
	}
	c.entries = append(c.entries, e)
	return e, nil
}

// MarkFailed flags an optimistic entry whose send failed. The next poll removes it.
func (c *Conversation) MarkFailed(tempID string) {
	if i := c.indexOf(tempID); i >= 0 {
		c.entries[i].Failed = true
	}
}

// ApplyPush merges one pushed row. Matching optimistic entries are replaced in
// place, known ids are patched, duplicates of INSERT are dropped and anything
// else is appended. It never reorders. Reports whether the list changed.
func (c *Conversation) ApplyPush(kind domain.EventKind, m *domain.MessageResponse) bool {
	if !c.Belongs(m) {
		return false
	}
	row := *m
	if c.deleted[row.ID] && !row.IsDeleted {
		redact(&row)
	}

	if i := c.indexOfID(row.ID); i >= 0 {
		if kind == domain.EventInsert {
			return false
		}
		c.entries[i].MessageResponse = row
		return true
	}

	for _, e := range c.entries {
		if e.Optimistic && confirms(e, &row) {
			*e = Entry{MessageResponse: row}
			return true
		}
	}

	c.entries = append(c.entries, &Entry{MessageResponse: row})
	return true
}

// Confirm resolves the optimistic entry tempID with the row the server
// returned for it. If another source already delivered the row the
// placeholder is dropped; if the placeholder is gone the row is merged as a push.
func (c *Conversation) Confirm(tempID string, m *domain.MessageResponse) bool {
	if !c.Belongs(m) {
		return false
	}
	i := c.indexOf(tempID)
	if i < 0 {
		return c.ApplyPush(domain.EventInsert, m)
	}
	if c.indexOfID(m.ID) >= 0 {
		c.removeAt(i)
		return true
	}
	*c.entries[i] = Entry{MessageResponse: *m}
	return true
}

// ApplyPoll replaces the list with the canonical server order. Locally deleted
// rows stay redacted until the server agrees, failed sends are dropped, and
// in-flight optimistic entries without a matching row are kept at the end.
func (c *Conversation) ApplyPoll(rows []*domain.MessageResponse) {
	next := make([]*Entry, 0, len(rows)+1)
	for _, m := range rows {
		if !c.Belongs(m) {
			continue
		}
		row := *m
		if c.deleted[row.ID] {
			if row.IsDeleted {
				delete(c.deleted, row.ID)
			} else {
				redact(&row)
			}
		}
		next = append(next, &Entry{MessageResponse: row})
	}

	// rows already on screen belong to earlier sends and cannot confirm a new one
	claimed := make(map[int]bool)
	for i, n := range next {
		if c.indexOfID(n.ID) >= 0 {
			claimed[i] = true
		}
	}
	for _, e := range c.entries {
		if !e.Optimistic || e.Failed {
			continue
		}
		matched := false
		for i, n := range next {
			// a row confirms at most one placeholder
			if claimed[i] {
				continue
			}
			if confirms(e, &n.MessageResponse) {
				claimed[i] = true
				matched = true
				break
			}
		}
		if !matched {
			next = append(next, e)
		}
	}
	c.entries = next
}

// clockSkew tolerates client clocks running ahead of the server
const clockSkew = 5 * time.Minute

// LocalDelete applies a delete to the view. It returns the row id and true when
// the server must be told; temporary entries are only removed locally.
func (c *Conversation) LocalDelete(key string) (int64, bool) {
	i := c.indexOf(key)
	if domain.IsTempID(key) {
		if i >= 0 {
			c.removeAt(i)
		}
		return 0, false
	}
	if i < 0 {
		return 0, false
	}
	e := c.entries[i]
	c.deleted[e.ID] = true
	redact(&e.MessageResponse)
	return e.ID, true
}

// ForgetDelete drops a local delete the server refused
func (c *Conversation) ForgetDelete(id int64) {
	delete(c.deleted, id)
}

// LocalEdit applies an edit to the view. Editing a temporary entry removes it
// instead, like LocalDelete.
func (c *Conversation) LocalEdit(key, content string) (int64, bool) {
	if domain.IsTempID(key) {
		return c.LocalDelete(key)
	}
	i := c.indexOf(key)
	if i < 0 {
		return 0, false
	}
	e := c.entries[i]
	if e.IsDeleted || e.MessageType != domain.MessageTypeText {
		return 0, false
	}
	e.Content = &content
	e.IsEdited = true
	return e.ID, true
}

func redact(m *domain.MessageResponse) {
	empty := ""
	m.Content = &empty
	m.ImageURL = nil
	m.StickerURL = nil
	m.AudioURL = nil
	m.IsDeleted = true
}
