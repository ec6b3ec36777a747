package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jdfmarine/leadengine/internal/chat"
)

// PostgresStore is the durable backend. Session uniqueness and notification
// dedup are enforced by unique constraints at the database, not by
// read-then-write checks, so racing requests collapse to one winner.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		return nil
	}
	return &PostgresStore{db: db}
}

// OpenPostgres dials Postgres through the pgx stdlib driver and verifies
// connectivity.
func OpenPostgres(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return db, nil
}

const upsertConversationQuery = `
	INSERT INTO conversations (
		id, session_id, messages,
		contact_name, contact_email, contact_phone,
		lead_score, requires_follow_up, notes,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	ON CONFLICT (session_id) DO UPDATE SET
		messages = EXCLUDED.messages,
		contact_name = EXCLUDED.contact_name,
		contact_email = EXCLUDED.contact_email,
		contact_phone = EXCLUDED.contact_phone,
		lead_score = EXCLUDED.lead_score,
		requires_follow_up = EXCLUDED.requires_follow_up,
		notes = EXCLUDED.notes,
		updated_at = NOW()
	RETURNING id`

// Upsert writes the latest snapshot for the session. Last write wins; the
// unique constraint on session_id serializes concurrent inserts.
func (s *PostgresStore) Upsert(ctx context.Context, state *chat.ConversationState) (string, error) {
	messages, err := json.Marshal(state.Messages)
	if err != nil {
		return "", fmt.Errorf("store: marshal messages: %w", err)
	}

	var id string
	err = s.db.QueryRowContext(ctx, upsertConversationQuery,
		uuid.New().String(),
		state.SessionID,
		messages,
		state.Contact.Name,
		state.Contact.Email,
		state.Contact.Phone,
		string(state.Score.Tier),
		state.Score.RequiresFollowUp,
		state.Score.Notes,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("store: upsert conversation: %w", err)
	}
	state.ID = id
	return id, nil
}

const getConversationQuery = `
	SELECT id, session_id, messages,
		contact_name, contact_email, contact_phone,
		lead_score, requires_follow_up, notes,
		created_at, updated_at
	FROM conversations
	WHERE session_id = $1`

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*chat.ConversationState, error) {
	var (
		state    chat.ConversationState
		messages []byte
		tier     string
	)
	err := s.db.QueryRowContext(ctx, getConversationQuery, sessionID).Scan(
		&state.ID,
		&state.SessionID,
		&messages,
		&state.Contact.Name,
		&state.Contact.Email,
		&state.Contact.Phone,
		&tier,
		&state.Score.RequiresFollowUp,
		&state.Score.Notes,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get conversation: %w", err)
	}

	if err := json.Unmarshal(messages, &state.Messages); err != nil {
		return nil, fmt.Errorf("store: unmarshal messages: %w", err)
	}
	state.Score.Tier = chat.LeadTier(tier)
	return &state, nil
}

func (s *PostgresStore) HasNotification(ctx context.Context, conversationID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM lead_notifications WHERE conversation_id = $1)`,
		conversationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: check notification: %w", err)
	}
	return exists, nil
}

// RecordNotification inserts the dedup record. The unique constraint on
// conversation_id makes the insert the authoritative check; a conflicting
// insert affects zero rows and maps to ErrNotificationExists.
func (s *PostgresStore) RecordNotification(ctx context.Context, rec NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO lead_notifications (id, conversation_id, notification_type, sent_to, status, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (conversation_id) DO NOTHING`,
		rec.ID, rec.ConversationID, rec.Type, rec.SentTo, rec.Status, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("store: record notification: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: record notification result: %w", err)
	}
	if affected == 0 {
		return ErrNotificationExists
	}
	return nil
}
