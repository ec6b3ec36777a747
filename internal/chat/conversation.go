package chat

import (
	"context"
	"time"
)

// ConversationState is the durable record for one chat session. Score and
// Contact are recomputed from scratch every turn; the store just holds the
// latest snapshot.
type ConversationState struct {
	ID        string      `json:"id"`
	SessionID string      `json:"sessionId"`
	Messages  []Message   `json:"messages"`
	Contact   ContactInfo `json:"contact"`
	Score     ScoreResult `json:"score"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ConversationStore persists conversation state across turns. Upsert is
// last-write-wins keyed by session id and returns the record identifier.
type ConversationStore interface {
	Upsert(ctx context.Context, state *ConversationState) (string, error)
	Get(ctx context.Context, sessionID string) (*ConversationState, error)
}

// Notifier alerts the business about qualified leads. Implementations must
// be idempotent per conversation; calling MaybeNotify twice for the same
// finalized transcript sends at most one alert.
type Notifier interface {
	MaybeNotify(ctx context.Context, state *ConversationState) error
}
