package chat

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is a named conversation scoped to a set of documents. Only chunks
// belonging to those documents are ever retrieved for its questions.
type Session struct {
	ID            string
	Name          string
	DocumentIDs   []string
	LastMessage   string
	LastMessageAt time.Time
	MessageCount  int
	CreatedAt     time.Time
}

// Citation points an answer at the chunk excerpt that supports it.
type Citation struct {
	Document  string  `json:"document"`
	Page      *int    `json:"page,omitempty"`
	Chunk     string  `json:"chunk"`
	Relevance float64 `json:"relevance"`
}

// Message is one entry in a session's history. Assistant messages carry
// citations and a response-time measurement.
type Message struct {
	ID             string
	SessionID      string
	Role           string
	Content        string
	Sources        []Citation
	ResponseTimeMs *int64
	CreatedAt      time.Time
}

// Answer is the query pipeline's result.
type Answer struct {
	Text           string
	Sources        []Citation
	ResponseTimeMs int64
}
