package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory SessionsRepo and MessagesRepo used by tests and
// by local development without a database.
type MemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
	messages map[string][]Message
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		sessions: make(map[string]Session),
		messages: make(map[string][]Message),
	}
}

var (
	_ SessionsRepo = (*MemoryRepo)(nil)
	_ MessagesRepo = (*MemoryRepo)(nil)
)

func (r *MemoryRepo) Create(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = cloneSession(session)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return cloneSession(session), nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		out = append(out, cloneSession(session))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepo) UpdateAfterExchange(ctx context.Context, sessionID, lastMessage string, at time.Time, added int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	session.LastMessage = lastMessage
	session.LastMessageAt = at
	session.MessageCount += added
	r.sessions[sessionID] = session
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, sessionID)
	delete(r.messages, sessionID)
	return nil
}

func (r *MemoryRepo) Append(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.SessionID] = append(r.messages[msg.SessionID], cloneMessage(msg))
	return nil
}

func (r *MemoryRepo) ListBySession(ctx context.Context, sessionID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.messages[sessionID]
	out := make([]Message, len(msgs))
	for i, msg := range msgs {
		out[i] = cloneMessage(msg)
	}
	return out, nil
}

func (r *MemoryRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, sessionID)
	return nil
}

func cloneSession(session Session) Session {
	out := session
	out.DocumentIDs = append([]string(nil), session.DocumentIDs...)
	return out
}

func cloneMessage(msg Message) Message {
	out := msg
	out.Sources = append([]Citation(nil), msg.Sources...)
	if msg.ResponseTimeMs != nil {
		ms := *msg.ResponseTimeMs
		out.ResponseTimeMs = &ms
	}
	return out
}
