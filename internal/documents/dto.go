package documents

import "time"

type documentResponse struct {
	DocumentID   string    `json:"documentId"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	SizeBytes    int64     `json:"sizeBytes"`
	Status       string    `json:"status"`
	Progress     int       `json:"processingProgress"`
	Chunks       int       `json:"chunks"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

func toResponse(doc Document) documentResponse {
	return documentResponse{
		DocumentID:   doc.ID,
		Name:         doc.Name,
		Type:         doc.FileType,
		SizeBytes:    doc.SizeBytes,
		Status:       doc.Status,
		Progress:     doc.Progress,
		Chunks:       doc.ChunkCount,
		ErrorMessage: doc.ErrorMessage,
		UploadedAt:   doc.CreatedAt,
	}
}

type chunkResponse struct {
	ChunkID    string `json:"chunkId"`
	DocumentID string `json:"documentId"`
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunkIndex"`
	Page       *int   `json:"page,omitempty"`
	Section    string `json:"section,omitempty"`
}

func toChunkResponse(chunk Chunk) chunkResponse {
	return chunkResponse{
		ChunkID:    chunk.ID,
		DocumentID: chunk.DocumentID,
		Content:    chunk.Content,
		ChunkIndex: chunk.ChunkIndex,
		Page:       chunk.Page,
		Section:    chunk.Section,
	}
}
