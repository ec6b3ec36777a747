package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jdfmarine/leadengine/internal/chat"
)

const conversationTTL = 30 * 24 * time.Hour

// RedisStore keeps conversation state and notification markers in Redis.
// Notification dedup uses SETNX so only one of two racing writers wins.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisStore(client *redis.Client, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("store: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("leadengine.internal.store.redis")
	}
	return &RedisStore{redis: client, tracer: tracer}
}

func conversationKey(sessionID string) string {
	return "leadengine:conversation:" + sessionID
}

func notificationKey(conversationID string) string {
	return "leadengine:notification:" + conversationID
}

func (s *RedisStore) Upsert(ctx context.Context, state *chat.ConversationState) (string, error) {
	ctx, span := s.tracer.Start(ctx, "store.upsert_conversation")
	defer span.End()

	existing, err := s.Get(ctx, state.SessionID)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	now := time.Now().UTC()
	if existing != nil {
		state.ID = existing.ID
		state.CreatedAt = existing.CreatedAt
	} else {
		state.ID = uuid.New().String()
		state.CreatedAt = now
	}
	state.UpdatedAt = now

	data, err := json.Marshal(state)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("store: marshal conversation: %w", err)
	}
	if err := s.redis.Set(ctx, conversationKey(state.SessionID), data, conversationTTL).Err(); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("store: persist conversation: %w", err)
	}
	return state.ID, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*chat.ConversationState, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_conversation")
	defer span.End()

	data, err := s.redis.Get(ctx, conversationKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store: load conversation: %w", err)
	}

	var state chat.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store: unmarshal conversation: %w", err)
	}
	return &state, nil
}

func (s *RedisStore) HasNotification(ctx context.Context, conversationID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "store.check_notification")
	defer span.End()

	n, err := s.redis.Exists(ctx, notificationKey(conversationID)).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("store: check notification: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) RecordNotification(ctx context.Context, rec NotificationRecord) error {
	ctx, span := s.tracer.Start(ctx, "store.record_notification")
	defer span.End()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("store: marshal notification: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, notificationKey(rec.ConversationID), data, conversationTTL).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("store: record notification: %w", err)
	}
	if !ok {
		return ErrNotificationExists
	}
	return nil
}
