// Package store – sqlite.go implements the SQLite-backed research store:
// sessions, their message history (with thumbs-up/down feedback flags),
// and uploaded documents. Reads during context assembly are snapshots;
// writes happen only at the turn boundary (persisting user/bot messages)
// and on upload/feedback endpoints.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// Session is one research conversation.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Message is one chat turn entry. Sender is "user" or "bot".
type Message struct {
	ID         string
	SessionID  string
	Sender     string
	Content    string
	Timestamp  time.Time
	ThumbsUp   bool
	ThumbsDown bool
}

// Document is an uploaded document's extracted text.
type Document struct {
	ID         string
	SessionID  string
	Filename   string
	Text       string
	UploadedAt time.Time
}

// FeedbackFlag selects which feedback set to query.
type FeedbackFlag int

const (
	ThumbsUp FeedbackFlag = iota
	ThumbsDown
)

// SQLiteStore provides persistent session/message/document storage.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens or creates the research database at dbPath.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// initSchema creates the required tables and indices.
func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL REFERENCES sessions(id),
			sender      TEXT NOT NULL,
			content     TEXT NOT NULL,
			timestamp   DATETIME NOT NULL,
			thumbs_up   INTEGER NOT NULL DEFAULT 0,
			thumbs_down INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_messages_session_ts
			ON messages(session_id, timestamp);
		CREATE TABLE IF NOT EXISTS documents (
			id          TEXT PRIMARY KEY,
			session_id  TEXT NOT NULL REFERENCES sessions(id),
			filename    TEXT NOT NULL,
			text        TEXT NOT NULL,
			uploaded_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_session
			ON documents(session_id);
		CREATE TABLE IF NOT EXISTS notes (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			message_id TEXT NOT NULL DEFAULT '',
			content    TEXT NOT NULL,
			tags       TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notes_session
			ON notes(session_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateSession creates a new named session.
func (s *SQLiteStore) CreateSession(ctx context.Context, name string) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, name, created_at) VALUES (?, ?, ?)`,
		sess.ID, sess.Name, sess.CreatedAt)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	s.logger.Info("session created", "session_id", sess.ID, "name", name)
	return sess, nil
}

// GetSession returns the session with the given ID, or nil if absent.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM sessions WHERE id = ?`, id)
	var sess Session
	if err := row.Scan(&sess.ID, &sess.Name, &sess.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &sess, nil
}

// ListSessions returns all sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Name, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session together with its messages and documents.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete notes: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	s.logger.Info("session deleted", "session_id", id)
	return nil
}

// SaveMessage appends a message to a session's history.
func (s *SQLiteStore) SaveMessage(ctx context.Context, sessionID, sender, content string) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, session_id, sender, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.SessionID, msg.Sender, msg.Content, msg.Timestamp)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

// RecentMessages returns up to limit most recent messages for a session,
// re-ordered oldest first so history reads chronologically.
func (s *SQLiteStore) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, sender, content, timestamp, thumbs_up, thumbs_down
		 FROM messages WHERE session_id = ?
		 ORDER BY timestamp DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var newest []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		newest = append(newest, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(newest)-1; i < j; i, j = i+1, j-1 {
		newest[i], newest[j] = newest[j], newest[i]
	}
	return newest, nil
}

// MessagesBySession returns the full history for a session, oldest first.
func (s *SQLiteStore) MessagesBySession(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, sender, content, timestamp, thumbs_up, thumbs_down
		 FROM messages WHERE session_id = ? ORDER BY timestamp ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SetFeedback records thumbs-up/down on a message. The two flags are
// mutually exclusive: setting one clears the other.
func (s *SQLiteStore) SetFeedback(ctx context.Context, messageID string, flag FeedbackFlag) error {
	up, down := 0, 0
	switch flag {
	case ThumbsUp:
		up = 1
	case ThumbsDown:
		down = 1
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET thumbs_up = ?, thumbs_down = ? WHERE id = ?`,
		up, down, messageID)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("message %s not found", messageID)
	}
	return nil
}

// MessagesByFeedback returns all messages flagged with the given feedback,
// across every session.
func (s *SQLiteStore) MessagesByFeedback(ctx context.Context, flag FeedbackFlag) ([]Message, error) {
	column := "thumbs_up"
	if flag == ThumbsDown {
		column = "thumbs_down"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, sender, content, timestamp, thumbs_up, thumbs_down
		 FROM messages WHERE `+column+` = 1 ORDER BY timestamp ASC`)
	if err != nil {
		return nil, fmt.Errorf("query feedback messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SaveDocument stores an uploaded document's extracted text.
func (s *SQLiteStore) SaveDocument(ctx context.Context, sessionID, filename, text string) (Document, error) {
	doc := Document{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Filename:   filename,
		Text:       text,
		UploadedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, session_id, filename, text, uploaded_at) VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.SessionID, doc.Filename, doc.Text, doc.UploadedAt)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	s.logger.Info("document saved",
		"session_id", sessionID,
		"filename", filename,
		"chars", len(text),
	)
	return doc, nil
}

// DocumentsBySession returns all documents for a session, oldest first.
func (s *SQLiteStore) DocumentsBySession(ctx context.Context, sessionID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, filename, text, uploaded_at
		 FROM documents WHERE session_id = ? ORDER BY uploaded_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.SessionID, &doc.Filename, &doc.Text, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DocumentByID returns a single document, or nil if absent.
func (s *SQLiteStore) DocumentByID(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, filename, text, uploaded_at FROM documents WHERE id = ?`, id)
	var doc Document
	if err := row.Scan(&doc.ID, &doc.SessionID, &doc.Filename, &doc.Text, &doc.UploadedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return &doc, nil
}

func scanMessage(rows *sql.Rows) (Message, error) {
	var msg Message
	var up, down int
	if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Sender, &msg.Content, &msg.Timestamp, &up, &down); err != nil {
		return Message{}, fmt.Errorf("scan message: %w", err)
	}
	msg.ThumbsUp = up == 1
	msg.ThumbsDown = down == 1
	return msg, nil
}
