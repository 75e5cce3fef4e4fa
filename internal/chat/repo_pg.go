package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements SessionsRepo and MessagesRepo using Postgres. Session
// document scoping lives in the chat_session_documents join table.
type PGRepo struct {
	DB *sql.DB
}

const sessionColumns = "id, name, last_message, last_message_at, message_count, created_at"

// Create inserts a session and its document links in one transaction.
func (r *PGRepo) Create(ctx context.Context, session Session) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
INSERT INTO chat_sessions (id, name, last_message, last_message_at, message_count, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = tx.ExecContext(
		ctx,
		query,
		session.ID,
		session.Name,
		nullableString(session.LastMessage),
		session.LastMessageAt,
		session.MessageCount,
		session.CreatedAt,
	)
	if err != nil {
		return err
	}

	if len(session.DocumentIDs) > 0 {
		var b strings.Builder
		b.WriteString("INSERT INTO chat_session_documents (session_id, document_id) VALUES ")
		args := make([]any, 0, len(session.DocumentIDs)*2)
		for i, documentID := range session.DocumentIDs {
			if i > 0 {
				b.WriteString(", ")
			}
			base := i * 2
			fmt.Fprintf(&b, "($%d, $%d)", base+1, base+2)
			args = append(args, session.ID, documentID)
		}
		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByID fetches a session and its document scope.
func (r *PGRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	query := fmt.Sprintf("SELECT %s FROM chat_sessions WHERE id = $1", sessionColumns)
	session, err := scanSession(r.DB.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}

	scopes, err := r.documentScopes(ctx, []string{sessionID})
	if err != nil {
		return Session{}, err
	}
	session.DocumentIDs = scopes[sessionID]
	return session, nil
}

// List returns all sessions, most recently active first.
func (r *PGRepo) List(ctx context.Context) ([]Session, error) {
	query := fmt.Sprintf("SELECT %s FROM chat_sessions ORDER BY last_message_at DESC, id", sessionColumns)
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	var ids []string
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
		ids = append(ids, session.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	scopes, err := r.documentScopes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DocumentIDs = scopes[out[i].ID]
	}
	return out, nil
}

// UpdateAfterExchange refreshes the last-message fields and message count.
func (r *PGRepo) UpdateAfterExchange(ctx context.Context, sessionID, lastMessage string, at time.Time, added int) error {
	const query = `
UPDATE chat_sessions
SET last_message = $1, last_message_at = $2, message_count = message_count + $3
WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, lastMessage, at, added, sessionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session. Links and messages go with it via ON DELETE
// CASCADE.
func (r *PGRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = $1", sessionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Append stores one message. Citations serialize into the sources JSONB
// column.
func (r *PGRepo) Append(ctx context.Context, msg Message) error {
	sources, err := marshalSources(msg.Sources)
	if err != nil {
		return err
	}

	const query = `
INSERT INTO chat_messages (id, session_id, role, content, sources, response_time_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.DB.ExecContext(
		ctx,
		query,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		sources,
		msg.ResponseTimeMs,
		msg.CreatedAt,
	)
	return err
}

// ListBySession returns a session's messages oldest first.
func (r *PGRepo) ListBySession(ctx context.Context, sessionID string) ([]Message, error) {
	const query = `
SELECT id, session_id, role, content, sources, response_time_ms, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var msg Message
		var sources []byte
		var responseTime sql.NullInt64
		if err := rows.Scan(
			&msg.ID,
			&msg.SessionID,
			&msg.Role,
			&msg.Content,
			&sources,
			&responseTime,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(sources) > 0 {
			if err := json.Unmarshal(sources, &msg.Sources); err != nil {
				return nil, fmt.Errorf("decode message sources id=%s: %w", msg.ID, err)
			}
		}
		if responseTime.Valid {
			ms := responseTime.Int64
			msg.ResponseTimeMs = &ms
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// DeleteBySession removes a session's messages.
func (r *PGRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = $1", sessionID)
	return err
}

// documentScopes loads the document IDs linked to each given session.
func (r *PGRepo) documentScopes(ctx context.Context, sessionIDs []string) (map[string][]string, error) {
	placeholders, args := sessionPlaceholders(sessionIDs)
	query := fmt.Sprintf(`
SELECT session_id, document_id
FROM chat_session_documents
WHERE session_id IN (%s)
ORDER BY session_id, document_id`, placeholders)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scopes := make(map[string][]string, len(sessionIDs))
	for rows.Next() {
		var sessionID, documentID string
		if err := rows.Scan(&sessionID, &documentID); err != nil {
			return nil, err
		}
		scopes[sessionID] = append(scopes[sessionID], documentID)
	}
	return scopes, rows.Err()
}

func scanSession(row rowScanner) (Session, error) {
	var session Session
	var lastMessage sql.NullString
	err := row.Scan(
		&session.ID,
		&session.Name,
		&lastMessage,
		&session.LastMessageAt,
		&session.MessageCount,
		&session.CreatedAt,
	)
	if err != nil {
		return Session{}, err
	}
	if lastMessage.Valid {
		session.LastMessage = lastMessage.String
	}
	return session, nil
}

func marshalSources(sources []Citation) ([]byte, error) {
	if len(sources) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(sources)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func sessionPlaceholders(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var (
	_ SessionsRepo = (*PGRepo)(nil)
	_ MessagesRepo = (*PGRepo)(nil)
)
