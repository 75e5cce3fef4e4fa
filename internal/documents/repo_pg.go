package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements DocumentsRepo and ChunksRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = "id, name, file_type, size_bytes, storage_key, status, progress, chunk_count, error_message, content, created_at"

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    name,
    file_type,
    size_bytes,
    storage_key,
    status,
    progress,
    chunk_count,
    error_message,
    content,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.Name,
		doc.FileType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.Status,
		doc.Progress,
		doc.ChunkCount,
		nullableString(doc.ErrorMessage),
		nullableString(doc.Content),
		doc.CreatedAt,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1", documentColumns)
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, documentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// GetByIDs fetches the documents matching the given IDs. Missing IDs are
// simply absent from the result.
func (r *PGRepo) GetByIDs(ctx context.Context, documentIDs []string) ([]Document, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	placeholders, args := placeholderList(documentIDs)
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id IN (%s) ORDER BY created_at DESC", documentColumns, placeholders)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// List returns all documents, newest first.
func (r *PGRepo) List(ctx context.Context) ([]Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents ORDER BY created_at DESC", documentColumns)
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// UpdateStatus persists the processing fields of a status snapshot.
func (r *PGRepo) UpdateStatus(ctx context.Context, doc Document) error {
	const query = `
UPDATE documents
SET status = $1, progress = $2, chunk_count = $3, error_message = $4, content = $5
WHERE id = $6`
	res, err := r.DB.ExecContext(
		ctx,
		query,
		doc.Status,
		doc.Progress,
		doc.ChunkCount,
		nullableString(doc.ErrorMessage),
		nullableString(doc.Content),
		doc.ID,
	)
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

// Delete removes a document record.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", documentID)
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

// InsertBatch stores a document's chunks in one multi-row insert.
func (r *PGRepo) InsertBatch(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO document_chunks (id, document_id, content, chunk_index, page, section, created_at) VALUES ")
	args := make([]any, 0, len(chunks)*7)
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args,
			chunk.ID,
			chunk.DocumentID,
			chunk.Content,
			chunk.ChunkIndex,
			chunk.Page,
			nullableString(chunk.Section),
			chunk.CreatedAt,
		)
	}

	_, err := r.DB.ExecContext(ctx, b.String(), args...)
	return err
}

// ListByDocument returns a document's chunks ordered by chunk index.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Chunk, error) {
	return r.ListByDocuments(ctx, []string{documentID})
}

// ListByDocuments returns all chunks belonging to the given documents.
func (r *PGRepo) ListByDocuments(ctx context.Context, documentIDs []string) ([]Chunk, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	placeholders, args := placeholderList(documentIDs)
	query := fmt.Sprintf(`
SELECT id, document_id, content, chunk_index, page, section, created_at
FROM document_chunks
WHERE document_id IN (%s)
ORDER BY document_id, chunk_index`, placeholders)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		var chunk Chunk
		var page sql.NullInt64
		var section sql.NullString
		if err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Content,
			&chunk.ChunkIndex,
			&page,
			&section,
			&chunk.CreatedAt,
		); err != nil {
			return nil, err
		}
		if page.Valid {
			p := int(page.Int64)
			chunk.Page = &p
		}
		if section.Valid {
			chunk.Section = section.String
		}
		out = append(out, chunk)
	}
	return out, rows.Err()
}

// DeleteByDocument removes all chunks belonging to a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM document_chunks WHERE document_id = $1", documentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var errorMessage sql.NullString
	var content sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.FileType,
		&doc.SizeBytes,
		&doc.StorageKey,
		&doc.Status,
		&doc.Progress,
		&doc.ChunkCount,
		&errorMessage,
		&content,
		&doc.CreatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if errorMessage.Valid {
		doc.ErrorMessage = errorMessage.String
	}
	if content.Valid {
		doc.Content = content.String
	}
	return doc, nil
}

func scanDocuments(rows *sql.Rows) ([]Document, error) {
	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func placeholderList(values []string) (string, []any) {
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
	_ DocumentsRepo = (*PGRepo)(nil)
	_ ChunksRepo    = (*PGRepo)(nil)
)
