package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

// PostgresWriter persists entries to a PostgreSQL table for querying and
// retention
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter creates a database-backed log writer and ensures the
// event_logs table exists
func NewPostgresWriter(db *sql.DB) (*PostgresWriter, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	w := &PostgresWriter{db: db}
	if err := w.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure event_logs table: %w", err)
	}
	return w, nil
}

func (w *PostgresWriter) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS event_logs (
		id UUID PRIMARY KEY,
		type VARCHAR(50) NOT NULL,
		occurred_at TIMESTAMP WITH TIME ZONE NOT NULL,
		project VARCHAR(100),
		source VARCHAR(100),
		user_id VARCHAR(255),
		reason VARCHAR(50),
		message TEXT,
		request_id VARCHAR(100),
		method VARCHAR(10),
		path TEXT,
		remote_addr VARCHAR(64),
		success BOOLEAN,
		metadata JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_event_logs_occurred_at ON event_logs(occurred_at DESC);
	CREATE INDEX IF NOT EXISTS idx_event_logs_type ON event_logs(type);
	CREATE INDEX IF NOT EXISTS idx_event_logs_project ON event_logs(project);
	CREATE INDEX IF NOT EXISTS idx_event_logs_user_id ON event_logs(user_id);
	`
	_, err := w.db.Exec(query)
	return err
}

// Write inserts the entry
func (w *PostgresWriter) Write(ctx context.Context, entry *Entry) error {
	var metadataJSON []byte
	var err error
	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	_, err = w.db.ExecContext(ctx, `
		INSERT INTO event_logs (
			id, type, occurred_at, project, source, user_id, reason,
			message, request_id, method, path, remote_addr, success, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, entry.Type, entry.OccurredAt, entry.Project, entry.Source,
		entry.UserID, entry.Reason, entry.Message, entry.RequestID,
		entry.Method, entry.Path, entry.RemoteAddr, entry.Success, metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// Shutdown is a no-op; the *sql.DB is owned by the caller
func (w *PostgresWriter) Shutdown(_ context.Context) error {
	return nil
}
