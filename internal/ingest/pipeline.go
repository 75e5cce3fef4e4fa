package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/chunker"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/extract"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/telemetry"
)

// Pipeline turns an uploaded file into persisted, queryable chunks:
// extract text, chunk it, batch-insert the chunks, then flip the document to
// processed. Chunks are persisted before the status flip so a crash mid-run
// is always observable as a non-terminal or error status, never a false
// processed.
type Pipeline struct {
	Docs     documents.DocumentsRepo
	Chunks   documents.ChunksRepo
	Store    object.ObjectStore
	Splitter *chunker.Chunker
}

// Process runs the ingestion state machine for one document. Failures are
// absorbed into the document's error state; the returned error is for the
// caller's logging only.
func (p *Pipeline) Process(ctx context.Context, documentID string) (err error) {
	startedAt := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			p.fail(documentID, err, startedAt)
		}
	}()

	doc, err := p.Docs.GetByID(ctx, documentID)
	if err != nil {
		telemetry.Error("ingest.lookup", map[string]any{
			"document_id": documentID,
			"error":       err.Error(),
		})
		return fmt.Errorf("document lookup id=%s: %w", documentID, err)
	}

	metrics.IncIngestStarted()
	p.logStatus(doc, "accepted->extracting", startedAt)

	snap := doc.WithProgress(documents.ProgressAccepted)
	if err := p.Docs.UpdateStatus(ctx, snap); err != nil {
		p.fail(documentID, fmt.Errorf("set processing failed: %w", err), startedAt)
		return err
	}

	text, err := extract.ExtractText(ctx, p.Store, doc.StorageKey, doc.FileType)
	if err != nil {
		p.fail(documentID, err, startedAt)
		return err
	}

	snap = snap.WithContent(text, documents.ProgressExtracted)
	if err := p.Docs.UpdateStatus(ctx, snap); err != nil {
		p.fail(documentID, fmt.Errorf("store extracted text: %w", err), startedAt)
		return err
	}

	parts := p.Splitter.Split(text)

	snap = snap.WithProgress(documents.ProgressChunked)
	if err := p.Docs.UpdateStatus(ctx, snap); err != nil {
		p.fail(documentID, fmt.Errorf("set chunked progress: %w", err), startedAt)
		return err
	}

	now := time.Now().UTC()
	chunks := make([]documents.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = documents.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Content:    part.Content,
			ChunkIndex: part.Index,
			Page:       part.Page,
			Section:    part.Section,
			CreatedAt:  now,
		}
	}

	if err := p.Chunks.InsertBatch(ctx, chunks); err != nil {
		p.fail(documentID, fmt.Errorf("persist chunks: %w", err), startedAt)
		return err
	}

	snap = snap.Processed(len(chunks))
	if err := p.Docs.UpdateStatus(ctx, snap); err != nil {
		p.fail(documentID, fmt.Errorf("set processed failed: %w", err), startedAt)
		return err
	}

	completedAt := time.Now().UTC()
	metrics.IncIngestCompleted()
	metrics.ObserveIngestDurationMs(float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0)
	telemetry.Info("ingest.status", map[string]any{
		"document_id":       doc.ID,
		"status":            documents.StatusProcessed,
		"status_transition": "processing->processed",
		"chunk_count":       len(chunks),
		"duration_ms":       float64(completedAt.Sub(startedAt).Microseconds()) / 1000.0,
	})
	return nil
}

// fail writes the terminal error state. A fresh context is used so the
// failure is still recorded when the triggering context is already canceled.
func (p *Pipeline) fail(documentID string, cause error, startedAt time.Time) {
	doc, err := p.Docs.GetByID(context.Background(), documentID)
	if err == nil {
		if updateErr := p.Docs.UpdateStatus(context.Background(), doc.Failed(cause.Error())); updateErr != nil {
			telemetry.Error("ingest.fail_update", map[string]any{
				"document_id": documentID,
				"error":       updateErr.Error(),
				"cause":       cause.Error(),
			})
		}
	}
	metrics.IncIngestFailed()
	metrics.ObserveIngestDurationMs(float64(time.Since(startedAt).Microseconds()) / 1000.0)
	telemetry.Error("ingest.status", map[string]any{
		"document_id":       documentID,
		"status":            documents.StatusError,
		"status_transition": "processing->error",
		"error":             cause.Error(),
	})
}

func (p *Pipeline) logStatus(doc documents.Document, transition string, startedAt time.Time) {
	telemetry.Info("ingest.status", map[string]any{
		"document_id":       doc.ID,
		"file_type":         doc.FileType,
		"size_bytes":        doc.SizeBytes,
		"status":            documents.StatusProcessing,
		"status_transition": transition,
		"started_at":        startedAt.Format(time.RFC3339),
	})
}
