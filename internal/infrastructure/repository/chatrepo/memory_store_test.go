package chatrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar-server/chat-api/internal/domain/conversation"
	"rentacar-server/chat-api/internal/domain/identity"
	"rentacar-server/chat-api/internal/domain/message"
	"rentacar-server/chat-api/internal/utils/platformerrors"
)

func seedConversation(t *testing.T, s *MemoryStore, userID string, createdAt time.Time) *conversation.Conversation {
	t.Helper()
	conv := &conversation.Conversation{UserID: userID, Status: conversation.StatusOpen, CreatedAt: createdAt, UpdatedAt: createdAt}
	require.NoError(t, s.Conversations().Create(context.Background(), conv))
	return conv
}

func seedMessage(t *testing.T, s *MemoryStore, convID uint, role identity.Role, content string, at time.Time) *message.Message {
	t.Helper()
	msg := &message.Message{ConversationID: convID, SenderID: "sender", SenderRole: role, Content: content, CreatedAt: at}
	require.NoError(t, s.Messages().Create(context.Background(), msg))
	return msg
}

func TestMemoryStoreFindLatestByUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.Conversations().FindLatestByUser(ctx, "u-1")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	seedConversation(t, s, "u-1", base)
	newer := seedConversation(t, s, "u-1", base.Add(time.Hour))
	seedConversation(t, s, "u-2", base.Add(2*time.Hour))

	got, err := s.Conversations().FindLatestByUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
}

func TestMemoryStoreMessagesAreOrdered(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	conv := seedConversation(t, s, "u-1", base)

	third := seedMessage(t, s, conv.ID, identity.RoleUser, "third", base.Add(3*time.Second))
	first := seedMessage(t, s, conv.ID, identity.RoleUser, "first", base.Add(time.Second))
	second := seedMessage(t, s, conv.ID, identity.RoleAdmin, "second", base.Add(2*time.Second))

	list, err := s.Messages().ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uint{first.ID, second.ID, third.ID}, []uint{list[0].ID, list[1].ID, list[2].ID})

	page, err := s.Messages().ListAfter(ctx, conv.ID, first.ID, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)

	page, err = s.Messages().ListAfter(ctx, conv.ID, third.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	page, err = s.Messages().ListAfter(ctx, conv.ID, 0, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestMemoryStoreRejectsMessageForUnknownConversation(t *testing.T) {
	s := NewMemoryStore()
	err := s.Messages().Create(context.Background(), &message.Message{ConversationID: 99, SenderID: "u", SenderRole: identity.RoleUser, Content: "hi"})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeDatabaseError))
}

func TestMemoryStoreSummaries(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	s.PutUser(UserRecord{ID: "u-1", Name: "Alice", Email: "alice@example.com"})

	older := seedConversation(t, s, "u-1", base)
	newer := seedConversation(t, s, "u-2", base.Add(time.Minute))

	seedMessage(t, s, older.ID, identity.RoleUser, "hello", base.Add(time.Second))
	seedMessage(t, s, older.ID, identity.RoleUser, "anyone?", base.Add(2*time.Second))
	seedMessage(t, s, older.ID, identity.RoleAdmin, "yes", base.Add(3*time.Second))
	require.NoError(t, s.Conversations().Touch(ctx, older.ID, base.Add(time.Hour)))

	list, err := s.Conversations().ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, "Alice", list[0].UserName)
	assert.Equal(t, "alice@example.com", list[0].UserEmail)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "yes", *list[0].LastMessage)
	assert.Equal(t, int64(2), list[0].UserMessageCount)

	assert.Equal(t, newer.ID, list[1].ID)
	assert.Empty(t, list[1].UserName)
	assert.Nil(t, list[1].LastMessage)
	assert.Zero(t, list[1].UserMessageCount)
}

func TestMemoryStoreUpdateStatusKeepsRecency(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	conv := seedConversation(t, s, "u-1", base)

	require.NoError(t, s.Conversations().UpdateStatus(ctx, conv.ID, conversation.StatusClosed))
	got, err := s.Conversations().FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusClosed, got.Status)
	assert.True(t, got.UpdatedAt.Equal(base))

	err = s.Conversations().UpdateStatus(ctx, 404, conversation.StatusClosed)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}
