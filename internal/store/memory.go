package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdfmarine/leadengine/internal/chat"
)

// MemoryStore keeps all state in process memory. It is the default backend
// when neither DATABASE_URL nor REDIS_ADDR is configured, and the workhorse
// for tests.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*chat.ConversationState
	notifications map[string]NotificationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*chat.ConversationState),
		notifications: make(map[string]NotificationRecord),
	}
}

// Upsert is last-write-wins keyed by session id.
func (s *MemoryStore) Upsert(_ context.Context, state *chat.ConversationState) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := s.conversations[state.SessionID]
	if ok {
		state.ID = existing.ID
		state.CreatedAt = existing.CreatedAt
	} else {
		state.ID = uuid.New().String()
		state.CreatedAt = now
	}
	state.UpdatedAt = now

	cloned := *state
	cloned.Messages = append([]chat.Message(nil), state.Messages...)
	s.conversations[state.SessionID] = &cloned
	return state.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*chat.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.conversations[sessionID]
	if !ok {
		return nil, nil
	}
	cloned := *state
	cloned.Messages = append([]chat.Message(nil), state.Messages...)
	return &cloned, nil
}

func (s *MemoryStore) HasNotification(_ context.Context, conversationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.notifications[conversationID]
	return ok, nil
}

func (s *MemoryStore) RecordNotification(_ context.Context, rec NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[rec.ConversationID]; ok {
		return ErrNotificationExists
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.notifications[rec.ConversationID] = rec
	return nil
}
