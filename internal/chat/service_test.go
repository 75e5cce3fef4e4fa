package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"docchat-backend/internal/documents"
	"docchat-backend/internal/retrieval"
)

func newTestService(t *testing.T) (*Service, *documents.MemoryRepo) {
	t.Helper()
	docsRepo := documents.NewMemoryRepo()
	chatRepo := NewMemoryRepo()
	return &Service{
		Sessions:      chatRepo,
		Messages:      chatRepo,
		Docs:          docsRepo,
		Chunks:        docsRepo,
		Scorer:        retrieval.NewScorer(3, 0.2),
		ExcerptLength: 200,
	}, docsRepo
}

func seedProcessedDocument(t *testing.T, repo *documents.MemoryRepo, id, name string, chunkContents ...string) {
	t.Helper()
	ctx := context.Background()

	doc := documents.Document{
		ID:        id,
		Name:      name,
		FileType:  "txt",
		Status:    documents.StatusProcessed,
		Progress:  documents.ProgressDone,
		CreatedAt: time.Now().UTC(),
	}
	doc.ChunkCount = len(chunkContents)
	if err := repo.Create(ctx, doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}

	chunks := make([]documents.Chunk, len(chunkContents))
	for i, content := range chunkContents {
		chunks[i] = documents.Chunk{
			ID:         id + "-c" + string(rune('0'+i)),
			DocumentID: id,
			Content:    content,
			ChunkIndex: i,
			CreatedAt:  time.Now().UTC(),
		}
	}
	if err := repo.InsertBatch(ctx, chunks); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-1", "a.txt", "content")

	if _, err := svc.CreateSession(context.Background(), "", []string{"doc-1"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty name: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CreateSession(context.Background(), "s", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("no documents: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.CreateSession(context.Background(), "s", []string{"doc-1", "ghost"}); !errors.Is(err, ErrUnknownDocuments) {
		t.Fatalf("unknown document: expected ErrUnknownDocuments, got %v", err)
	}
}

func TestCreateSessionDedupesDocuments(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-1", "a.txt", "content")

	session, err := svc.CreateSession(context.Background(), "s", []string{"doc-1", "doc-1", " doc-1 "})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(session.DocumentIDs) != 1 || session.DocumentIDs[0] != "doc-1" {
		t.Fatalf("expected deduped scope, got %v", session.DocumentIDs)
	}
}

func TestAskAnswersWithCitations(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-1", "sky.txt",
		"What color is the sky? The sky is blue on clear days.",
		"Grass is green and water is wet.",
	)

	session, err := svc.CreateSession(context.Background(), "sky questions", []string{"doc-1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	userMsg, assistantMsg, err := svc.Ask(context.Background(), session.ID, "what color is the sky")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if userMsg.Role != RoleUser || userMsg.Content != "what color is the sky" {
		t.Fatalf("unexpected user message: %+v", userMsg)
	}
	if assistantMsg.Role != RoleAssistant {
		t.Fatalf("expected assistant role, got %s", assistantMsg.Role)
	}
	if assistantMsg.Content == retrieval.NoRelevantInformation {
		t.Fatalf("expected a sourced answer, got fallback")
	}
	if len(assistantMsg.Sources) == 0 {
		t.Fatalf("expected citations")
	}
	for _, src := range assistantMsg.Sources {
		if src.Document != "sky.txt" {
			t.Fatalf("citation names wrong document: %s", src.Document)
		}
		if src.Relevance <= 0.2 {
			t.Fatalf("citation below relevance cutoff: %v", src.Relevance)
		}
	}
	if assistantMsg.ResponseTimeMs == nil {
		t.Fatalf("expected response time on assistant message")
	}

	msgs, err := svc.ListMessages(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("messages out of order: %s, %s", msgs[0].Role, msgs[1].Role)
	}

	updated, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if updated.MessageCount != 2 {
		t.Fatalf("expected message count 2, got %d", updated.MessageCount)
	}
	if updated.LastMessage != "what color is the sky" {
		t.Fatalf("expected last message preview, got %q", updated.LastMessage)
	}
}

func TestAskNoRelevantChunks(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-1", "a.txt", "completely unrelated subject matter")

	session, err := svc.CreateSession(context.Background(), "s", []string{"doc-1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, assistantMsg, err := svc.Ask(context.Background(), session.ID, "quantum chromodynamics")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if assistantMsg.Content != retrieval.NoRelevantInformation {
		t.Fatalf("expected fallback answer, got %q", assistantMsg.Content)
	}
	if len(assistantMsg.Sources) != 0 {
		t.Fatalf("expected no citations, got %d", len(assistantMsg.Sources))
	}
}

func TestAskScopedToSessionDocuments(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-in", "in.txt", "completely unrelated subject matter")
	seedProcessedDocument(t, docsRepo, "doc-out", "out.txt", "what color is the sky, the sky is blue")

	session, err := svc.CreateSession(context.Background(), "s", []string{"doc-in"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, assistantMsg, err := svc.Ask(context.Background(), session.ID, "what color is the sky")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	for _, src := range assistantMsg.Sources {
		if src.Document == "out.txt" {
			t.Fatalf("answer cited a document outside the session scope")
		}
	}
}

func TestAskValidation(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-1", "a.txt", "content")

	session, err := svc.CreateSession(context.Background(), "s", []string{"doc-1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, _, err := svc.Ask(context.Background(), session.ID, "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank question: expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.Ask(context.Background(), "ghost", "question"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown session: expected ErrNotFound, got %v", err)
	}
}

func TestAskTruncatesCitationExcerpts(t *testing.T) {
	svc, docsRepo := newTestService(t)

	long := strings.TrimSpace(strings.Repeat("the sky is wide and the sky is tall ", 10))
	seedProcessedDocument(t, docsRepo, "doc-1", "a.txt", long)

	session, err := svc.CreateSession(context.Background(), "s", []string{"doc-1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, assistantMsg, err := svc.Ask(context.Background(), session.ID, "is the sky wide")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if len(assistantMsg.Sources) == 0 {
		t.Fatalf("expected citations")
	}
	excerpt := assistantMsg.Sources[0].Chunk
	if len(excerpt) != 203 {
		t.Fatalf("expected 200-char excerpt with marker, got %d chars", len(excerpt))
	}
	if !strings.HasSuffix(excerpt, "...") {
		t.Fatalf("expected truncation marker")
	}
}

func TestDeleteSessionRemovesHistory(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-1", "a.txt", "the sky is blue, is it not")

	session, err := svc.CreateSession(context.Background(), "s", []string{"doc-1"})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, _, err := svc.Ask(context.Background(), session.ID, "is the sky blue"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	if err := svc.DeleteSession(context.Background(), session.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	if _, err := svc.GetSession(context.Background(), session.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
	if _, err := svc.ListMessages(context.Background(), session.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected history gone, got %v", err)
	}
}

func TestListSessionsOrderedByActivity(t *testing.T) {
	svc, docsRepo := newTestService(t)
	seedProcessedDocument(t, docsRepo, "doc-1", "a.txt", "the sky is blue today, is it not")

	first, err := svc.CreateSession(context.Background(), "first", []string{"doc-1"})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.CreateSession(context.Background(), "second", []string{"doc-1"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	// Activity on the first session moves it to the front.
	if _, _, err := svc.Ask(context.Background(), first.ID, "is the sky blue"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	sessions, err := svc.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != first.ID {
		t.Fatalf("expected most recently active session first, got %s", sessions[0].ID)
	}
	_ = second
}
