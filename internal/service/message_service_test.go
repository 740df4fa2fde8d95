package service

import (
	"context"
	"testing"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/common"
	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestMessageService() (*messageService, *mockMessageRepo, *mockProfileRepo, *recordingNotifier) {
	repo := new(mockMessageRepo)
	profiles := new(mockProfileRepo)
	notifier := &recordingNotifier{}
	svc := NewMessageService(repo, profiles, fakeIdentity{}, notifier).(*messageService)
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, profiles, notifier
}

func TestSend_TextMessage(t *testing.T) {
	svc, repo, profiles, notifier := newTestMessageService()
	ctx := context.Background()

	profiles.On("FindByID", ctx, "bob").Return(&domain.Profile{ID: "bob"}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Message).ID = 7 }).
		Return(nil)

	res, err := svc.Send(ctx, "alice", &domain.SendMessageRequest{
		ReceiverID: "pub-bob",
		Content:    strPtr("hola"),
		ImageURL:   strPtr("https://ignored.example.com/x.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.ID)
	assert.Equal(t, "pub-alice", res.SenderPublicID)
	assert.Equal(t, "pub-bob", res.ReceiverPublicID)
	assert.Equal(t, domain.MessageTypeText, res.MessageType)
	assert.Equal(t, "hola", *res.Content)
	assert.Nil(t, res.ImageURL, "fields of other types are dropped")

	events := notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventInsert, events[0].event.Event)
	assert.ElementsMatch(t, []string{"alice", "bob"}, events[0].to)
}

func TestSend_ImageDropsCaption(t *testing.T) {
	svc, repo, profiles, _ := newTestMessageService()
	ctx := context.Background()

	profiles.On("FindByID", ctx, "bob").Return(&domain.Profile{ID: "bob"}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)

	res, err := svc.Send(ctx, "alice", &domain.SendMessageRequest{
		ReceiverID:  "pub-bob",
		MessageType: domain.MessageTypeImage,
		Content:     strPtr("caption"),
		ImageURL:    strPtr("https://cdn.example.com/messages/a/1.png"),
	})
	require.NoError(t, err)
	assert.Nil(t, res.Content)
	require.NotNil(t, res.ImageURL)
}

func TestSend_Validation(t *testing.T) {
	svc, _, profiles, _ := newTestMessageService()
	ctx := context.Background()
	profiles.On("FindByID", ctx, "bob").Return(&domain.Profile{ID: "bob"}, nil)
	profiles.On("FindByID", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

	tests := []struct {
		name string
		req  *domain.SendMessageRequest
		want error
	}{
		{"missing receiver", &domain.SendMessageRequest{Content: strPtr("x")}, common.ErrMissingPeer},
		{"unknown public id", &domain.SendMessageRequest{ReceiverID: "nobody", Content: strPtr("x")}, common.ErrReceiverNotFound},
		{"deleted receiver", &domain.SendMessageRequest{ReceiverID: "pub-ghost", Content: strPtr("x")}, common.ErrReceiverNotFound},
		{"unknown type", &domain.SendMessageRequest{ReceiverID: "pub-bob", MessageType: "video"}, common.ErrInvalidType},
		{"image without url", &domain.SendMessageRequest{ReceiverID: "pub-bob", MessageType: domain.MessageTypeImage, Content: strPtr("x")}, common.ErrPayloadMismatch},
		{"empty text", &domain.SendMessageRequest{ReceiverID: "pub-bob"}, common.ErrPayloadMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(ctx, "alice", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSend_ReplyMustBeInConversation(t *testing.T) {
	svc, repo, profiles, _ := newTestMessageService()
	ctx := context.Background()

	profiles.On("FindByID", ctx, "bob").Return(&domain.Profile{ID: "bob"}, nil)
	repo.On("FindByID", ctx, int64(1)).Return(&domain.Message{ID: 1, SenderID: "carol", ReceiverID: "alice"}, nil)
	repo.On("FindByID", ctx, int64(2)).Return(&domain.Message{ID: 2, SenderID: "bob", ReceiverID: "alice"}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(nil)

	other := int64(1)
	_, err := svc.Send(ctx, "alice", &domain.SendMessageRequest{ReceiverID: "pub-bob", Content: strPtr("re"), ReplyToID: &other})
	assert.ErrorIs(t, err, common.ErrInvalidReply)

	same := int64(2)
	res, err := svc.Send(ctx, "alice", &domain.SendMessageRequest{ReceiverID: "pub-bob", Content: strPtr("re"), ReplyToID: &same})
	require.NoError(t, err)
	assert.Equal(t, &same, res.ReplyToID)
}

func TestList_UnknownPeerIsEmpty(t *testing.T) {
	svc, repo, _, _ := newTestMessageService()

	res, err := svc.List(context.Background(), "alice", "nobody")
	require.NoError(t, err)
	assert.Empty(t, res)
	repo.AssertNotCalled(t, "ListConversation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestList_UsesPublicIDs(t *testing.T) {
	svc, repo, profiles, _ := newTestMessageService()
	ctx := context.Background()

	profiles.On("FindByID", ctx, "bob").Return(&domain.Profile{ID: "bob"}, nil)
	repo.On("ListConversation", ctx, "alice", "bob", fixedNow).Return([]*domain.Message{
		{ID: 1, SenderID: "alice", ReceiverID: "bob", MessageType: domain.MessageTypeText, Content: strPtr("a")},
		{ID: 2, SenderID: "bob", ReceiverID: "alice", MessageType: domain.MessageTypeText, Content: strPtr("b")},
	}, nil)

	res, err := svc.List(ctx, "alice", "pub-bob")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "pub-bob", res[1].SenderPublicID)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("owner edits text", func(t *testing.T) {
		svc, repo, _, notifier := newTestMessageService()
		repo.On("FindByID", ctx, int64(5)).Return(&domain.Message{ID: 5, SenderID: "alice", ReceiverID: "bob", MessageType: domain.MessageTypeText, Content: strPtr("old")}, nil)
		repo.On("UpdateContent", ctx, int64(5), "new").Return(nil)

		res, err := svc.Edit(ctx, "alice", &domain.EditMessageRequest{ID: 5, Content: "new"})
		require.NoError(t, err)
		assert.Equal(t, "new", *res.Content)
		assert.True(t, res.IsEdited)
		require.Len(t, notifier.all(), 1)
		assert.Equal(t, domain.EventUpdate, notifier.all()[0].event.Event)
	})

	t.Run("non sender is rejected", func(t *testing.T) {
		svc, repo, _, _ := newTestMessageService()
		repo.On("FindByID", ctx, int64(5)).Return(&domain.Message{ID: 5, SenderID: "bob", ReceiverID: "alice", MessageType: domain.MessageTypeText}, nil)

		_, err := svc.Edit(ctx, "alice", &domain.EditMessageRequest{ID: 5, Content: "hack"})
		assert.ErrorIs(t, err, common.ErrNotMessageOwner)
		assert.Equal(t, 403, common.StatusOf(err))
	})

	t.Run("deleted message is a no-op", func(t *testing.T) {
		svc, repo, _, notifier := newTestMessageService()
		repo.On("FindByID", ctx, int64(5)).Return(&domain.Message{ID: 5, SenderID: "alice", ReceiverID: "bob", IsDeleted: true, Content: strPtr("")}, nil)

		res, err := svc.Edit(ctx, "alice", &domain.EditMessageRequest{ID: 5, Content: "new"})
		require.NoError(t, err)
		assert.Equal(t, "", *res.Content)
		repo.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, notifier.all())
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _, _, _ := newTestMessageService()
		_, err := svc.Edit(ctx, "alice", &domain.EditMessageRequest{Content: "x"})
		assert.ErrorIs(t, err, common.ErrMissingMessageID)
		_, err = svc.Edit(ctx, "alice", &domain.EditMessageRequest{ID: 1, Content: "  "})
		assert.ErrorIs(t, err, common.ErrEmptyContent)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("temporary id is ignored", func(t *testing.T) {
		svc, repo, _, _ := newTestMessageService()
		res, err := svc.Delete(ctx, "alice", "tmp-123")
		require.NoError(t, err)
		assert.Nil(t, res)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("owner soft-deletes", func(t *testing.T) {
		svc, repo, _, notifier := newTestMessageService()
		repo.On("FindByID", ctx, int64(9)).Return(&domain.Message{ID: 9, SenderID: "alice", ReceiverID: "bob", MessageType: domain.MessageTypeAudio, AudioURL: strPtr("https://x/a.webm")}, nil)
		repo.On("SoftDelete", ctx, int64(9)).Return(nil)

		res, err := svc.Delete(ctx, "alice", "9")
		require.NoError(t, err)
		assert.True(t, res.IsDeleted)
		assert.Equal(t, "", *res.Content)
		assert.Nil(t, res.AudioURL)
		assert.Len(t, notifier.all(), 1)
	})

	t.Run("second delete is idempotent", func(t *testing.T) {
		svc, repo, _, notifier := newTestMessageService()
		repo.On("FindByID", ctx, int64(9)).Return(&domain.Message{ID: 9, SenderID: "alice", ReceiverID: "bob", IsDeleted: true, Content: strPtr("")}, nil)

		res, err := svc.Delete(ctx, "alice", "9")
		require.NoError(t, err)
		assert.True(t, res.IsDeleted)
		repo.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
		assert.Empty(t, notifier.all())
	})

	t.Run("receiver cannot delete", func(t *testing.T) {
		svc, repo, _, _ := newTestMessageService()
		repo.On("FindByID", ctx, int64(9)).Return(&domain.Message{ID: 9, SenderID: "bob", ReceiverID: "alice"}, nil)

		_, err := svc.Delete(ctx, "alice", "9")
		assert.ErrorIs(t, err, common.ErrNotMessageOwner)
	})

	t.Run("bad id", func(t *testing.T) {
		svc, _, _, _ := newTestMessageService()
		_, err := svc.Delete(ctx, "alice", "abc")
		assert.ErrorIs(t, err, common.ErrMissingMessageID)
	})
}

func TestClearConversation(t *testing.T) {
	svc, repo, profiles, notifier := newTestMessageService()
	ctx := context.Background()

	profiles.On("FindByID", ctx, "bob").Return(&domain.Profile{ID: "bob"}, nil)
	repo.On("ListConversation", ctx, "alice", "bob", fixedNow).Return([]*domain.Message{
		{ID: 1, SenderID: "alice", ReceiverID: "bob", Content: strPtr("a")},
		{ID: 2, SenderID: "bob", ReceiverID: "alice", Content: strPtr("")},
		{ID: 3, SenderID: "bob", ReceiverID: "alice", IsDeleted: true, Content: strPtr("")},
	}, nil)
	repo.On("SoftDeleteConversation", ctx, "alice", "bob").Return(int64(3), nil)

	n, err := svc.ClearConversation(ctx, "alice", "pub-bob")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	events := notifier.all()
	require.Len(t, events, 2, "already deleted rows are not re-announced")
	for _, e := range events {
		assert.True(t, e.event.Message.IsDeleted)
	}
}

func TestMarkRead(t *testing.T) {
	svc, repo, profiles, notifier := newTestMessageService()
	ctx := context.Background()

	profiles.On("FindByID", ctx, "bob").Return(&domain.Profile{ID: "bob"}, nil)
	repo.On("ListConversation", ctx, "alice", "bob", fixedNow).Return([]*domain.Message{
		{ID: 1, SenderID: "bob", ReceiverID: "alice"},
		{ID: 2, SenderID: "alice", ReceiverID: "bob"},
		{ID: 3, SenderID: "bob", ReceiverID: "alice", IsRead: true},
	}, nil)
	repo.On("MarkRead", ctx, "alice", "bob").Return(int64(1), nil)

	n, err := svc.MarkRead(ctx, "alice", "pub-bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	events := notifier.all()
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].event.Message.ID)
	assert.True(t, events[0].event.Message.IsRead)
}

func TestMarkRead_UnknownPeer(t *testing.T) {
	svc, _, _, _ := newTestMessageService()
	_, err := svc.MarkRead(context.Background(), "alice", "nobody")
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}
