// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"grokchat/internal/model"
)

// ErrSessionNotFound indicates a lookup for a session ID with no row.
var ErrSessionNotFound = errors.New("session not found")

// StorageError wraps a database failure with the operation that caused it.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err as a StorageError, passing nil through.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// migrations run in order on every open. Statements are idempotent so an
// existing database passes through unchanged.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		model TEXT NOT NULL,
		title TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		model TEXT,
		tokens_used INTEGER,
		FOREIGN KEY (session_id) REFERENCES chat_sessions(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_session_id ON messages(session_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_sessions_updated_at ON chat_sessions(updated_at)`,
}

// Store persists chat sessions and messages in SQLite.
//
// Timestamps are serialized as RFC 3339 text with nanosecond precision so
// lexical order matches chronological order. Safe for concurrent use; the
// underlying pool serializes writes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies
// migrations. Foreign keys are enabled so deleting a session cascades to
// its messages.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("open", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, storageErr("open", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate applies the schema.
func (s *Store) migrate() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return storageErr("migrate", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// encodeTime serializes a timestamp for storage.
func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// decodeTime parses a stored timestamp.
func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// CreateSession inserts a new session row.
func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, created_at, updated_at, model, title) VALUES (?, ?, ?, ?, ?)`,
		session.ID, encodeTime(session.CreatedAt), encodeTime(session.UpdatedAt), session.Model, session.Title)
	return storageErr("create session", err)
}

// GetSession retrieves a session by ID, returning ErrSessionNotFound if no
// row exists.
func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, model, title FROM chat_sessions WHERE id = ?`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, storageErr("get session", err)
	}
	return session, nil
}

// DefaultSessionLimit caps ListSessions when the caller gives no limit.
const DefaultSessionLimit = 50

// ListSessions returns a page of sessions ordered most recently updated
// first. A limit of zero or less falls back to DefaultSessionLimit; a
// negative offset is treated as zero.
func (s *Store) ListSessions(ctx context.Context, limit, offset int) ([]model.Session, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, updated_at, model, title FROM chat_sessions ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, storageErr("list sessions", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, storageErr("list sessions", rows.Err())
}

// UpdateSession persists the session's updated_at, model and title. The
// caller touches the session before saving; the stored created_at is never
// rewritten.
func (s *Store) UpdateSession(ctx context.Context, session *model.Session) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ?, model = ?, title = ? WHERE id = ?`,
		encodeTime(session.UpdatedAt), session.Model, session.Title, session.ID)
	if err != nil {
		return storageErr("update session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update session", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSession removes a session and, through the foreign key cascade,
// all of its messages. Deleting an absent session returns
// ErrSessionNotFound.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("delete session", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// CreateMessage inserts a message and fills in its assigned row ID. The
// owning session's updated_at is bumped in the same transaction so session
// listings surface active conversations first.
func (s *Store) CreateMessage(ctx context.Context, msg *model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("create message", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, timestamp, model, tokens_used) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.SessionID, string(msg.Role), msg.Content, encodeTime(msg.Timestamp), msg.Model, msg.TokensUsed)
	if err != nil {
		return storageErr("create message", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return storageErr("create message", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`,
		encodeTime(msg.Timestamp), msg.SessionID); err != nil {
		return storageErr("create message", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("create message", err)
	}
	msg.ID = id
	return nil
}

// GetMessages returns a session's messages in chronological order.
func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, timestamp, model, tokens_used
		 FROM messages WHERE session_id = ? ORDER BY timestamp ASC, id ASC`, sessionID)
	if err != nil {
		return nil, storageErr("get messages", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var role, ts string
		var msgModel sql.NullString
		var tokens sql.NullInt64
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content, &ts, &msgModel, &tokens); err != nil {
			return nil, storageErr("get messages", err)
		}
		msg.Role = model.ParseRole(role)
		if msg.Timestamp, err = decodeTime(ts); err != nil {
			return nil, storageErr("get messages", err)
		}
		if msgModel.Valid {
			msg.Model = &msgModel.String
		}
		if tokens.Valid {
			n := int(tokens.Int64)
			msg.TokensUsed = &n
		}
		messages = append(messages, msg)
	}
	return messages, storageErr("get messages", rows.Err())
}

// SessionMessageCount returns how many messages a session holds.
func (s *Store) SessionMessageCount(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&n)
	return n, storageErr("session message count", err)
}

// TotalSessions returns the number of stored sessions.
func (s *Store) TotalSessions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_sessions`).Scan(&n)
	return n, storageErr("total sessions", err)
}

// TotalMessages returns the number of stored messages across all sessions.
func (s *Store) TotalMessages(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n)
	return n, storageErr("total messages", err)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanSession reads one chat_sessions row.
func scanSession(row scanner) (*model.Session, error) {
	var session model.Session
	var createdAt, updatedAt string
	var title sql.NullString
	if err := row.Scan(&session.ID, &createdAt, &updatedAt, &session.Model, &title); err != nil {
		return nil, err
	}

	var err error
	if session.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if session.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	if title.Valid {
		session.Title = &title.String
	}
	return &session, nil
}
