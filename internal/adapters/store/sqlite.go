// Package store persists chat messages in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/eirem/relay/internal/domain"
)

// SQLite is the durable append-only message log. It implements
// core.MessageStore.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and runs migrations.
func Open(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}

	ctx := context.Background()

	// WAL keeps history reads from blocking relay-path writes.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: set busy_timeout: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS messages (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		from_user_id TEXT    NOT NULL,
		to_user_id   TEXT    NOT NULL,
		text         TEXT    NOT NULL,
		timestamp    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_pair
		ON messages (from_user_id, to_user_id, timestamp);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Append adds one message to the log. Messages are never mutated or deleted
// afterwards.
func (s *SQLite) Append(ctx context.Context, msg *domain.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("store: message failed validation: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (from_user_id, to_user_id, text, timestamp) VALUES (?, ?, ?, ?)",
		string(msg.From), string(msg.To), msg.Text, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("store: append message: %w", err)
	}
	return nil
}

// Between returns the conversation between a and b, both directions, oldest
// first. Insertion order breaks timestamp ties.
func (s *SQLite) Between(ctx context.Context, a, b domain.UserID) ([]domain.Message, error) {
	const query = `
	SELECT from_user_id, to_user_id, text, timestamp
	FROM messages
	WHERE (from_user_id = ? AND to_user_id = ?)
	   OR (from_user_id = ? AND to_user_id = ?)
	ORDER BY timestamp ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(a), string(b), string(b), string(a))
	if err != nil {
		return nil, fmt.Errorf("store: query conversation: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var from, to string
		if err := rows.Scan(&from, &to, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("store: scan message: %w", err)
		}
		m.From = domain.UserID(from)
		m.To = domain.UserID(to)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
