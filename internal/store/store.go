// Package store persists conversation state and notification dedup records.
// Three backends are provided: Postgres for durable deployments, Redis for
// fast ephemeral deployments, and an in-process map for tests and local runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jdfmarine/leadengine/internal/chat"
)

// ErrNotificationExists signals that a notification record already exists
// for the conversation. Callers treat it as "already handled, no-op".
var ErrNotificationExists = errors.New("store: notification already recorded")

// NotificationStatus values for NotificationRecord.
const (
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// NotificationTypeLeadAlert is the only notification type dispatched today.
const NotificationTypeLeadAlert = "lead_alert"

// NotificationRecord marks that a lead alert was attempted for a
// conversation. At most one record exists per conversation id; its presence
// is what prevents duplicate alerts on later turns.
type NotificationRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Type           string    `json:"type"`
	SentTo         string    `json:"sentTo"`
	Status         string    `json:"status"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Store is the full persistence surface: conversation upserts plus the
// notification dedup ledger.
type Store interface {
	chat.ConversationStore

	// HasNotification reports whether an alert record exists for the
	// conversation. It is a pre-check only; RecordNotification is the
	// authoritative dedup point.
	HasNotification(ctx context.Context, conversationID string) (bool, error)

	// RecordNotification inserts the record, returning ErrNotificationExists
	// if one is already present for the conversation id.
	RecordNotification(ctx context.Context, rec NotificationRecord) error
}
