// Package store – notes.go persists user research notes, optionally
// linked to the message they annotate.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is a user-authored annotation within a session. MessageID links
// the note to a specific message and is empty for free-standing notes.
// Tags is a comma-separated list.
type Note struct {
	ID        string
	SessionID string
	MessageID string
	Content   string
	Tags      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteFilter narrows ListNotes. Zero-value fields do not filter; Query
// matches notes whose content or tags contain the text.
type NoteFilter struct {
	SessionID string
	MessageID string
	Query     string
}

// CreateNote stores a new note.
func (s *SQLiteStore) CreateNote(ctx context.Context, sessionID, content, messageID, tags string) (Note, error) {
	now := time.Now().UTC()
	note := Note{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		MessageID: messageID,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, session_id, message_id, content, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		note.ID, note.SessionID, note.MessageID, note.Content, note.Tags, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	s.logger.Info("note created", "note_id", note.ID, "session_id", sessionID)
	return note, nil
}

// ListNotes returns notes matching the filter, oldest first.
func (s *SQLiteStore) ListNotes(ctx context.Context, filter NoteFilter) ([]Note, error) {
	query := `SELECT id, session_id, message_id, content, tags, created_at, updated_at FROM notes`
	var conds []string
	var args []any
	if filter.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.MessageID != "" {
		conds = append(conds, "message_id = ?")
		args = append(args, filter.MessageID)
	}
	if filter.Query != "" {
		conds = append(conds, "(instr(content, ?) > 0 OR instr(tags, ?) > 0)")
		args = append(args, filter.Query, filter.Query)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.SessionID, &n.MessageID, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// UpdateNote changes a note's content and/or tags. Empty arguments
// leave the current value in place.
func (s *SQLiteStore) UpdateNote(ctx context.Context, id, content, tags string) (Note, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET
			content    = CASE WHEN ? = '' THEN content ELSE ? END,
			tags       = CASE WHEN ? = '' THEN tags ELSE ? END,
			updated_at = ?
		 WHERE id = ?`,
		content, content, tags, tags, time.Now().UTC(), id)
	if err != nil {
		return Note{}, fmt.Errorf("update note: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return Note{}, fmt.Errorf("note %s not found", id)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, message_id, content, tags, created_at, updated_at FROM notes WHERE id = ?`, id)
	var note Note
	if err := row.Scan(&note.ID, &note.SessionID, &note.MessageID, &note.Content, &note.Tags, &note.CreatedAt, &note.UpdatedAt); err != nil {
		return Note{}, fmt.Errorf("reload note: %w", err)
	}
	return note, nil
}

// DeleteNote removes a note.
func (s *SQLiteStore) DeleteNote(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("note %s not found", id)
	}
	return nil
}
