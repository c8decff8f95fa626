package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresWriter(t *testing.T) (*PostgresWriter, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS event_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w, err := NewPostgresWriter(db)
	require.NoError(t, err)
	return w, mock
}

func TestPostgresWriterWrite(t *testing.T) {
	w, mock := newPostgresWriter(t)

	entry := NewAuthRejected("club", "app-android", "user-1", "insufficient_role", "role check failed", nil)
	mock.ExpectExec("INSERT INTO event_logs").
		WithArgs(
			entry.ID, string(entry.Type), entry.OccurredAt, "club", "app-android",
			"user-1", "insufficient_role", "role check failed", "", "", "", "",
			false, []byte(nil),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, w.Write(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriterWriteError(t *testing.T) {
	w, mock := newPostgresWriter(t)

	mock.ExpectExec("INSERT INTO event_logs").
		WillReturnError(errors.New("connection refused"))

	err := w.Write(context.Background(), NewEntry(EntryTypeRequestError))
	assert.Error(t, err)
}

func TestPostgresWriterRequiresDB(t *testing.T) {
	_, err := NewPostgresWriter(nil)
	assert.Error(t, err)
}

func TestPostgresWriterMetadata(t *testing.T) {
	w, mock := newPostgresWriter(t)

	entry := NewNotificationSent("club", "welcome", "mock", 1, true, "ok")
	mock.ExpectExec("INSERT INTO event_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, w.Write(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}
