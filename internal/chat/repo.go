package chat

import (
	"context"
	"time"
)

// SessionsRepo defines persistence operations for chat sessions.
type SessionsRepo interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, sessionID string) (Session, error)
	List(ctx context.Context) ([]Session, error)
	// UpdateAfterExchange refreshes the denormalized last-message fields and
	// bumps the message count.
	UpdateAfterExchange(ctx context.Context, sessionID, lastMessage string, at time.Time, added int) error
	Delete(ctx context.Context, sessionID string) error
}

// MessagesRepo defines persistence operations for chat messages.
type MessagesRepo interface {
	Append(ctx context.Context, msg Message) error
	ListBySession(ctx context.Context, sessionID string) ([]Message, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
