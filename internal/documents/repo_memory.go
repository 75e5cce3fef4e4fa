package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo and ChunksRepo.
type MemoryRepo struct {
	mu     sync.RWMutex
	docs   map[string]Document
	chunks map[string][]Chunk // documentID -> ordered chunks
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:   make(map[string]Document),
		chunks: make(map[string][]Chunk),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// GetByIDs returns the documents matching the given IDs. Missing IDs are
// simply absent from the result; the caller decides whether that is an error.
func (r *MemoryRepo) GetByIDs(ctx context.Context, documentIDs []string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(documentIDs))
	for _, id := range documentIDs {
		if doc, ok := r.docs[id]; ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// List returns all documents, newest first.
func (r *MemoryRepo) List(ctx context.Context) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus persists the processing fields of a status snapshot.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.docs[doc.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = doc.Status
	stored.Progress = doc.Progress
	stored.ChunkCount = doc.ChunkCount
	stored.ErrorMessage = doc.ErrorMessage
	stored.Content = doc.Content
	r.docs[doc.ID] = stored
	return nil
}

// Delete removes a document record.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[documentID]; !ok {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	return nil
}

// InsertBatch stores a document's chunks in one operation.
func (r *MemoryRepo) InsertBatch(ctx context.Context, chunks []Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chunk := range chunks {
		r.chunks[chunk.DocumentID] = append(r.chunks[chunk.DocumentID], chunk)
	}
	return nil
}

// ListByDocument returns a document's chunks ordered by chunk index.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Chunk, error) {
	return r.ListByDocuments(ctx, []string{documentID})
}

// ListByDocuments returns all chunks belonging to the given documents,
// ordered by document then chunk index.
func (r *MemoryRepo) ListByDocuments(ctx context.Context, documentIDs []string) ([]Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Chunk
	for _, id := range documentIDs {
		chunks := append([]Chunk(nil), r.chunks[id]...)
		sort.Slice(chunks, func(i, j int) bool {
			return chunks[i].ChunkIndex < chunks[j].ChunkIndex
		})
		out = append(out, chunks...)
	}
	return out, nil
}

// DeleteByDocument removes all chunks belonging to a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, documentID)
	return nil
}

var (
	_ DocumentsRepo = (*MemoryRepo)(nil)
	_ ChunksRepo    = (*MemoryRepo)(nil)
)
