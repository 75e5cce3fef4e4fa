package documents

import "time"

// Document statuses. A document is created as processing and ends processed
// or error; error is terminal and never retried automatically.
const (
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusError      = "error"
)

// Ingestion progress checkpoints. Advisory and coarse-grained, not a precise
// percentage.
const (
	ProgressAccepted  = 10
	ProgressExtracted = 50
	ProgressChunked   = 80
	ProgressDone      = 100
)

// Document represents an uploaded file and its ingestion state.
type Document struct {
	ID           string
	Name         string
	FileType     string
	SizeBytes    int64
	StorageKey   string
	Status       string
	Progress     int
	ChunkCount   int
	ErrorMessage string
	Content      string
	CreatedAt    time.Time
}

// Chunk is one bounded slice of a document's extracted text.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	ChunkIndex int
	Page       *int
	Section    string
	CreatedAt  time.Time
}

// WithProgress returns a snapshot at the given processing checkpoint.
func (d Document) WithProgress(progress int) Document {
	d.Status = StatusProcessing
	d.Progress = progress
	return d
}

// WithContent returns a snapshot carrying the extracted text.
func (d Document) WithContent(text string, progress int) Document {
	d = d.WithProgress(progress)
	d.Content = text
	return d
}

// Processed returns the terminal success snapshot.
func (d Document) Processed(chunkCount int) Document {
	d.Status = StatusProcessed
	d.Progress = ProgressDone
	d.ChunkCount = chunkCount
	d.ErrorMessage = ""
	return d
}

// Failed returns the terminal error snapshot.
func (d Document) Failed(message string) Document {
	d.Status = StatusError
	d.ErrorMessage = message
	return d
}
