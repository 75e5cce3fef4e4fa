package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/retrieval"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/telemetry"
)

// Service contains business logic for chat sessions and the query pipeline.
type Service struct {
	Sessions SessionsRepo
	Messages MessagesRepo
	Docs     documents.DocumentsRepo
	Chunks   documents.ChunksRepo
	Scorer   *retrieval.Scorer

	// ExcerptLength bounds citation excerpts; zero means no truncation.
	ExcerptLength int
}

// CreateSession registers a new session scoped to the given documents. Every
// referenced document must exist.
func (s *Service) CreateSession(ctx context.Context, name string, documentIDs []string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, fmt.Errorf("%w: session name required", ErrInvalidInput)
	}
	if len(documentIDs) == 0 {
		return Session{}, fmt.Errorf("%w: at least one document required", ErrInvalidInput)
	}

	unique := dedupe(documentIDs)
	if len(unique) == 0 {
		return Session{}, fmt.Errorf("%w: at least one document required", ErrInvalidInput)
	}
	docs, err := s.Docs.GetByIDs(ctx, unique)
	if err != nil {
		return Session{}, err
	}
	if len(docs) != len(unique) {
		return Session{}, ErrUnknownDocuments
	}

	now := time.Now().UTC()
	session := Session{
		ID:            uuid.NewString(),
		Name:          name,
		DocumentIDs:   unique,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	if err := s.Sessions.Create(ctx, session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// ListSessions returns all sessions, most recently active first.
func (s *Service) ListSessions(ctx context.Context) ([]Session, error) {
	return s.Sessions.List(ctx)
}

// GetSession returns a session by ID.
func (s *Service) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}
	return s.Sessions.GetByID(ctx, sessionID)
}

// DeleteSession removes a session together with its message history.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return err
	}
	if err := s.Messages.DeleteBySession(ctx, sessionID); err != nil {
		return err
	}
	return s.Sessions.Delete(ctx, sessionID)
}

// ListMessages returns a session's history, oldest first.
func (s *Service) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.Messages.ListBySession(ctx, sessionID)
}

// Ask runs the query pipeline for one question: the user message is recorded,
// chunks scoped to the session's documents are ranked, an answer with
// citations is composed and recorded, and the session's activity fields are
// refreshed.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (Message, Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Message{}, Message{}, fmt.Errorf("%w: question required", ErrInvalidInput)
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return Message{}, Message{}, err
	}

	now := time.Now().UTC()
	userMsg := Message{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Role:      RoleUser,
		Content:   question,
		CreatedAt: now,
	}
	if err := s.Messages.Append(ctx, userMsg); err != nil {
		return Message{}, Message{}, err
	}

	answer, err := s.answer(ctx, question, session.DocumentIDs)
	if err != nil {
		metrics.IncQueryFailed()
		telemetry.Error("chat.answer", map[string]any{
			"session_id": session.ID,
			"error":      err.Error(),
		})
		return Message{}, Message{}, err
	}

	assistantMsg := Message{
		ID:             uuid.NewString(),
		SessionID:      session.ID,
		Role:           RoleAssistant,
		Content:        answer.Text,
		Sources:        answer.Sources,
		ResponseTimeMs: &answer.ResponseTimeMs,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.Messages.Append(ctx, assistantMsg); err != nil {
		metrics.IncQueryFailed()
		return Message{}, Message{}, err
	}

	if err := s.Sessions.UpdateAfterExchange(ctx, session.ID, question, assistantMsg.CreatedAt, 2); err != nil {
		// The exchange itself is already recorded; a stale preview is not
		// worth failing the request over.
		telemetry.Error("chat.session_update", map[string]any{
			"session_id": session.ID,
			"error":      err.Error(),
		})
	}

	metrics.IncQueryAnswered()
	metrics.ObserveQueryDurationMs(float64(answer.ResponseTimeMs))
	telemetry.Info("chat.answer", map[string]any{
		"session_id":       session.ID,
		"source_count":     len(answer.Sources),
		"response_time_ms": answer.ResponseTimeMs,
	})
	return userMsg, assistantMsg, nil
}

// answer ranks the session's chunks against the question and composes the
// cited answer.
func (s *Service) answer(ctx context.Context, question string, documentIDs []string) (Answer, error) {
	start := time.Now()

	docs, err := s.Docs.GetByIDs(ctx, documentIDs)
	if err != nil {
		return Answer{}, fmt.Errorf("load session documents: %w", err)
	}
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[doc.ID] = doc.Name
	}

	chunks, err := s.Chunks.ListByDocuments(ctx, documentIDs)
	if err != nil {
		return Answer{}, fmt.Errorf("load session chunks: %w", err)
	}

	candidates := make([]retrieval.Chunk, len(chunks))
	for i, chunk := range chunks {
		candidates[i] = retrieval.Chunk{
			DocumentID:   chunk.DocumentID,
			DocumentName: names[chunk.DocumentID],
			Content:      chunk.Content,
			Index:        chunk.ChunkIndex,
			Page:         chunk.Page,
		}
	}

	ranked := s.Scorer.Rank(question, candidates)

	sources := make([]Citation, len(ranked))
	for i, src := range ranked {
		sources[i] = Citation{
			Document:  src.DocumentName,
			Page:      src.Page,
			Chunk:     retrieval.Excerpt(src.Content, s.ExcerptLength),
			Relevance: src.Score,
		}
	}

	return Answer{
		Text:           retrieval.Compose(question, ranked),
		Sources:        sources,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
