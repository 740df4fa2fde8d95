package chatclient

import (
	"testing"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func row(id int64, from, to, text string, at time.Time) *domain.MessageResponse {
	return &domain.MessageResponse{
		ID:               id,
		SenderPublicID:   from,
		ReceiverPublicID: to,
		MessageType:      domain.MessageTypeText,
		Content:          strp(text),
		CreatedAt:        at,
	}
}

func textReq(text string) *domain.SendMessageRequest {
	return &domain.SendMessageRequest{MessageType: domain.MessageTypeText, Content: strp(text)}
}

func TestOptimisticSendThenPushCollapses(t *testing.T) {
	c := NewConversation("me", "bob")

	e, err := c.AddOptimistic(textReq("hi"), t0)
	require.NoError(t, err)
	assert.True(t, domain.IsTempID(e.TempID))
	require.Len(t, c.Entries(), 1)
	assert.True(t, c.Entries()[0].Optimistic)

	assert.True(t, c.ApplyPush(domain.EventInsert, row(7, "me", "bob", "hi", t0.Add(time.Second))))

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ID)
	assert.False(t, entries[0].Optimistic)
	assert.Empty(t, entries[0].TempID)

	// the HTTP response and a poll deliver the same row again
	assert.False(t, c.ApplyPush(domain.EventInsert, row(7, "me", "bob", "hi", t0.Add(time.Second))))
	c.ApplyPoll([]*domain.MessageResponse{row(7, "me", "bob", "hi", t0.Add(time.Second))})
	assert.Len(t, c.Entries(), 1)
}

func TestOptimisticMatchesAttachmentURL(t *testing.T) {
	c := NewConversation("me", "bob")
	_, err := c.AddOptimistic(&domain.SendMessageRequest{
		MessageType: domain.MessageTypeImage,
		ImageURL:    strp("https://cdn.test/a.png"),
		Content:     strp("caption is dropped"),
	}, t0)
	require.NoError(t, err)
	assert.Nil(t, c.Entries()[0].Content)

	other := &domain.MessageResponse{
		ID: 3, SenderPublicID: "me", ReceiverPublicID: "bob",
		MessageType: domain.MessageTypeImage, ImageURL: strp("https://cdn.test/b.png"), CreatedAt: t0,
	}
	same := *other
	same.ID = 4
	same.ImageURL = strp("https://cdn.test/a.png")

	c.ApplyPush(domain.EventInsert, other)
	c.ApplyPush(domain.EventInsert, &same)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(4), entries[0].ID, "placeholder replaced in place")
	assert.Equal(t, int64(3), entries[1].ID)
}

func TestAddOptimisticRejectsBadPayload(t *testing.T) {
	c := NewConversation("me", "bob")
	_, err := c.AddOptimistic(&domain.SendMessageRequest{MessageType: domain.MessageTypeAudio}, t0)
	assert.ErrorIs(t, err, domain.ErrPayloadMismatch)
	assert.Empty(t, c.Entries())
}

func TestOlderIdenticalRowDoesNotConfirm(t *testing.T) {
	c := NewConversation("me", "bob")
	old := row(1, "me", "bob", "ok", t0.Add(-time.Hour))
	c.ApplyPoll([]*domain.MessageResponse{old})

	_, err := c.AddOptimistic(textReq("ok"), t0)
	require.NoError(t, err)

	c.ApplyPoll([]*domain.MessageResponse{old})
	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[1].Optimistic, "pending send survives the poll")

	c.ApplyPoll([]*domain.MessageResponse{old, row(2, "me", "bob", "ok", t0)})
	entries = c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[1].ID)
}

func TestRepeatedTextWithinSkewStaysPending(t *testing.T) {
	c := NewConversation("me", "bob")
	earlier := row(1, "me", "bob", "ok", t0.Add(-time.Minute))
	c.ApplyPoll([]*domain.MessageResponse{earlier})

	e, err := c.AddOptimistic(textReq("ok"), t0)
	require.NoError(t, err)

	// the second "ok" is not stored yet
	c.ApplyPoll([]*domain.MessageResponse{earlier})
	require.Len(t, c.Entries(), 2)

	c.MarkFailed(e.TempID)
	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, e.TempID, entries[1].TempID)
	assert.True(t, entries[1].Failed)
}

func TestConfirmByTempID(t *testing.T) {
	c := NewConversation("me", "bob")
	a, _ := c.AddOptimistic(textReq("ok"), t0)
	b, _ := c.AddOptimistic(textReq("ok"), t0)

	// b's row is pushed first and lands on the first identical placeholder
	c.ApplyPush(domain.EventInsert, row(2, "me", "bob", "ok", t0))

	assert.True(t, c.Confirm(a.TempID, row(1, "me", "bob", "ok", t0)))
	// row 2 is already on screen
	assert.False(t, c.Confirm(b.TempID, row(2, "me", "bob", "ok", t0)))

	entries := c.Entries()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.False(t, e.Optimistic)
	}
	assert.ElementsMatch(t, []int64{1, 2}, []int64{entries[0].ID, entries[1].ID})

	assert.False(t, c.Confirm("tmp-other", row(3, "carol", "me", "x", t0)))
}

func TestPushIgnoresOtherConversations(t *testing.T) {
	c := NewConversation("me", "bob")
	assert.False(t, c.ApplyPush(domain.EventInsert, row(1, "carol", "me", "psst", t0)))
	assert.False(t, c.ApplyPush(domain.EventInsert, nil))
	assert.Empty(t, c.Entries())
}

func TestPushUpdatePatchesInPlace(t *testing.T) {
	c := NewConversation("me", "bob")
	c.ApplyPoll([]*domain.MessageResponse{
		row(1, "bob", "me", "first", t0),
		row(2, "me", "bob", "second", t0.Add(time.Second)),
	})

	edited := row(1, "bob", "me", "first!", t0)
	edited.IsEdited = true
	assert.True(t, c.ApplyPush(domain.EventUpdate, edited))

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "first!", *entries[0].Content)
	assert.Equal(t, int64(2), entries[1].ID)
}

func TestPollOrderIsAuthoritative(t *testing.T) {
	c := NewConversation("me", "bob")
	c.ApplyPush(domain.EventInsert, row(2, "bob", "me", "b", t0.Add(time.Second)))
	c.ApplyPush(domain.EventInsert, row(1, "me", "bob", "a", t0))
	assert.Equal(t, int64(2), c.Entries()[0].ID, "push appends")

	c.ApplyPoll([]*domain.MessageResponse{row(1, "me", "bob", "a", t0), row(2, "bob", "me", "b", t0.Add(time.Second))})
	assert.Equal(t, int64(1), c.Entries()[0].ID)
}

func TestLocalDeleteSurvivesLaggingPoll(t *testing.T) {
	c := NewConversation("me", "bob")
	c.ApplyPoll([]*domain.MessageResponse{row(5, "me", "bob", "oops", t0)})

	id, remote := c.LocalDelete("5")
	require.True(t, remote)
	assert.Equal(t, int64(5), id)

	// the server has not seen the delete yet
	c.ApplyPoll([]*domain.MessageResponse{row(5, "me", "bob", "oops", t0)})
	e := c.Entries()[0]
	assert.True(t, e.IsDeleted)
	assert.Equal(t, "", *e.Content)

	// a stale push does not resurrect it either
	c.ApplyPush(domain.EventUpdate, row(5, "me", "bob", "oops", t0))
	assert.True(t, c.Entries()[0].IsDeleted)

	confirmed := row(5, "me", "bob", "", t0)
	confirmed.IsDeleted = true
	c.ApplyPoll([]*domain.MessageResponse{confirmed})
	assert.Empty(t, c.deleted)
}

func TestForgetDeleteRestoresOnNextPoll(t *testing.T) {
	c := NewConversation("me", "bob")
	c.ApplyPoll([]*domain.MessageResponse{row(5, "me", "bob", "keep", t0)})
	c.LocalDelete("5")
	c.ForgetDelete(5)

	c.ApplyPoll([]*domain.MessageResponse{row(5, "me", "bob", "keep", t0)})
	assert.False(t, c.Entries()[0].IsDeleted)
	assert.Equal(t, "keep", *c.Entries()[0].Content)
}

func TestFailedSendRemovedByPoll(t *testing.T) {
	c := NewConversation("me", "bob")
	failed, _ := c.AddOptimistic(textReq("lost"), t0)
	pending, _ := c.AddOptimistic(textReq("in flight"), t0)
	c.MarkFailed(failed.TempID)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Failed)

	c.ApplyPoll(nil)
	entries = c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, pending.TempID, entries[0].TempID)
}

func TestTempEntriesNeverReachNetwork(t *testing.T) {
	c := NewConversation("me", "bob")
	a, _ := c.AddOptimistic(textReq("a"), t0)
	b, _ := c.AddOptimistic(textReq("b"), t0)

	_, remote := c.LocalDelete(a.TempID)
	assert.False(t, remote)
	_, remote = c.LocalEdit(b.TempID, "b2")
	assert.False(t, remote)
	assert.Empty(t, c.Entries())
}

func TestLocalEdit(t *testing.T) {
	c := NewConversation("me", "bob")
	img := &domain.MessageResponse{ID: 2, SenderPublicID: "me", ReceiverPublicID: "bob", MessageType: domain.MessageTypeImage, ImageURL: strp("https://x/y.png"), CreatedAt: t0}
	c.ApplyPoll([]*domain.MessageResponse{row(1, "me", "bob", "typo", t0), img})

	id, remote := c.LocalEdit("1", "fixed")
	assert.True(t, remote)
	assert.Equal(t, int64(1), id)
	assert.True(t, c.Entries()[0].IsEdited)

	_, remote = c.LocalEdit("2", "nope")
	assert.False(t, remote, "only text carries content")
	_, remote = c.LocalEdit("99", "missing")
	assert.False(t, remote)
}

func TestEntryKey(t *testing.T) {
	assert.Equal(t, "42", (&Entry{MessageResponse: domain.MessageResponse{ID: 42}}).Key())
	assert.Equal(t, "tmp-x", (&Entry{TempID: "tmp-x"}).Key())
}
