package documents

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"docchat-backend/internal/extract"
	"docchat-backend/internal/shared/storage/object"
	"docchat-backend/internal/shared/telemetry"
)

// Ingestor accepts a document for background processing.
type Ingestor interface {
	Submit(documentID string) error
}

// Service contains business logic for documents.
type Service struct {
	Store  object.ObjectStore
	Repo   DocumentsRepo
	Chunks ChunksRepo
	Ingest Ingestor
}

// Upload saves the file to object storage, records the document and submits
// it for ingestion. The returned document is still processing; callers poll
// its status. If the ingestion queue rejects the submission the document is
// recorded in the error state rather than dropped.
func (s *Service) Upload(ctx context.Context, fileName string, r io.Reader) (Document, error) {
	if fileName == "" {
		return Document{}, fmt.Errorf("%w: file name required", ErrInvalidInput)
	}

	fileType := extract.TypeFromFileName(fileName)
	if !extract.Supported(fileType) {
		return Document{}, fmt.Errorf("%w: unsupported file type %q", ErrInvalidInput, fileType)
	}

	storageKey, size, _, err := s.Store.Save(ctx, fileName, r)
	if err != nil {
		return Document{}, err
	}

	doc := Document{
		ID:         uuid.NewString(),
		Name:       fileName,
		FileType:   fileType,
		SizeBytes:  size,
		StorageKey: storageKey,
		Status:     StatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	if s.Ingest != nil {
		if err := s.Ingest.Submit(doc.ID); err != nil {
			failed := doc.Failed(fmt.Sprintf("ingestion not started: %v", err))
			if updateErr := s.Repo.UpdateStatus(ctx, failed); updateErr != nil {
				telemetry.Error("document.submit_fail_update", map[string]any{
					"document_id": doc.ID,
					"error":       updateErr.Error(),
				})
			}
			return failed, nil
		}
	}

	return doc, nil
}

// List returns all documents, newest first.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.Repo.List(ctx)
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, fmt.Errorf("%w: document id required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, documentID)
}

// ListChunks returns a document's chunks in index order.
func (s *Service) ListChunks(ctx context.Context, documentID string) ([]Chunk, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	return s.Chunks.ListByDocument(ctx, documentID)
}

// Delete removes a document, its chunks and its backing file.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.Chunks.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		// The record cleanup still proceeds; an orphaned file is preferable
		// to a document that cannot be deleted.
		telemetry.Error("document.file_delete", map[string]any{
			"document_id": documentID,
			"storage_key": doc.StorageKey,
			"error":       err.Error(),
		})
	}
	return s.Repo.Delete(ctx, documentID)
}
