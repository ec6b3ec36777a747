package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfmarine/leadengine/internal/chat"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresUpsertReturnsID(t *testing.T) {
	s, mock := newMockStore(t)
	state := sampleState("s-1")

	mock.ExpectQuery("INSERT INTO conversations").
		WithArgs(sqlmock.AnyArg(), "s-1", sqlmock.AnyArg(),
			"Alex", "", "8455550100", "hot", true, "URGENT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("record-1"))

	id, err := s.Upsert(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "record-1", id)
	assert.Equal(t, "record-1", state.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO conversations").
		WillReturnError(sql.ErrConnDone)

	_, err := s.Upsert(context.Background(), sampleState("s-1"))
	assert.Error(t, err)
}

func TestPostgresGet(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "session_id", "messages",
		"contact_name", "contact_email", "contact_phone",
		"lead_score", "requires_follow_up", "notes",
		"created_at", "updated_at",
	}).AddRow(
		"record-1", "s-1", []byte(`[{"role":"user","content":"hi"}]`),
		"Alex", "alex@example.com", "8455550100",
		"hot", true, "URGENT",
		now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs("s-1").
		WillReturnRows(rows)

	state, err := s.Get(context.Background(), "s-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, chat.LeadTierHot, state.Score.Tier)
	assert.True(t, state.Score.RequiresFollowUp)
	require.Len(t, state.Messages, 1)
	assert.Equal(t, "hi", state.Messages[0].Content)
}

func TestPostgresGetMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM conversations").
		WithArgs("unknown").
		WillReturnError(sql.ErrNoRows)

	state, err := s.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestPostgresHasNotification(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	has, err := s.HasNotification(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPostgresRecordNotification(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO lead_notifications").
		WithArgs(sqlmock.AnyArg(), "conv-1", NotificationTypeLeadAlert, "owner@example.com", NotificationStatusSent, "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.RecordNotification(context.Background(), NotificationRecord{
		ConversationID: "conv-1",
		Type:           NotificationTypeLeadAlert,
		SentTo:         "owner@example.com",
		Status:         NotificationStatusSent,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A conflicting insert affects zero rows and maps to ErrNotificationExists.
func TestPostgresRecordNotificationConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO lead_notifications").
		WithArgs(sqlmock.AnyArg(), "conv-1", NotificationTypeLeadAlert, "owner@example.com", NotificationStatusSent, "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.RecordNotification(context.Background(), NotificationRecord{
		ConversationID: "conv-1",
		Type:           NotificationTypeLeadAlert,
		SentTo:         "owner@example.com",
		Status:         NotificationStatusSent,
	})
	assert.ErrorIs(t, err, ErrNotificationExists)
}
