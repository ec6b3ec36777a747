package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfmarine/leadengine/internal/chat"
)

func sampleState(sessionID string) *chat.ConversationState {
	return &chat.ConversationState{
		SessionID: sessionID,
		Messages: []chat.Message{
			{Role: chat.ChatRoleUser, Content: "boat won't start"},
			{Role: chat.ChatRoleAssistant, Content: "Let's get that looked at right away."},
		},
		Contact: chat.ContactInfo{Name: "Alex", Phone: "8455550100"},
		Score:   chat.ScoreResult{Tier: chat.LeadTierHot, RequiresFollowUp: true, Notes: "URGENT"},
	}
}

func TestMemoryStoreUpsertInsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := sampleState("s-1")
	id1, err := s.Upsert(ctx, first)
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	second := sampleState("s-1")
	second.Messages = append(second.Messages, chat.Message{Role: chat.ChatRoleUser, Content: "any update?"})
	id2, err := s.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	got, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Messages, 3)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	got, err := NewMemoryStore().Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Upsert(ctx, sampleState("s-1"))
	require.NoError(t, err)

	got, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"

	again, err := s.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "boat won't start", again.Messages[0].Content)
}

func TestMemoryStoreNotificationDedup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	has, err := s.HasNotification(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, has)

	err = s.RecordNotification(ctx, NotificationRecord{ConversationID: "conv-1", Status: NotificationStatusSent})
	require.NoError(t, err)

	has, err = s.HasNotification(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, has)

	err = s.RecordNotification(ctx, NotificationRecord{ConversationID: "conv-1", Status: NotificationStatusFailed})
	assert.ErrorIs(t, err, ErrNotificationExists)
}
