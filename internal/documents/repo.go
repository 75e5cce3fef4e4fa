package documents

import "context"

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	GetByIDs(ctx context.Context, documentIDs []string) ([]Document, error)
	List(ctx context.Context) ([]Document, error)
	// UpdateStatus persists the processing fields of a status snapshot
	// (status, progress, chunk count, error message, content).
	UpdateStatus(ctx context.Context, doc Document) error
	Delete(ctx context.Context, documentID string) error
}

// ChunksRepo defines persistence operations for document chunks.
type ChunksRepo interface {
	InsertBatch(ctx context.Context, chunks []Chunk) error
	ListByDocument(ctx context.Context, documentID string) ([]Chunk, error)
	ListByDocuments(ctx context.Context, documentIDs []string) ([]Chunk, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
