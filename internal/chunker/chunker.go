package chunker

import (
	"regexp"
	"strings"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Chunk is a bounded slice of extracted text, citable on its own.
type Chunk struct {
	Content string
	Index   int
	Page    *int
	Section string
}

// Chunker splits extracted text into sentence-aligned chunks. Sentences are
// accumulated until adding the next one would push the chunk past Size; the
// overflowing sentence starts the next chunk. Overlap is accepted for
// interface compatibility but does not introduce character overlap between
// adjacent chunks; chunks stay aligned to sentence boundaries.
type Chunker struct {
	Size    int
	Overlap int
}

var sentenceSplitter = regexp.MustCompile(`[.!?]+`)

// New returns a Chunker, falling back to defaults for non-positive sizes.
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Split breaks text into ordered chunks with contiguous indices starting at 0.
// Empty text yields no chunks. Text without sentence-terminal punctuation
// yields a single chunk holding the whole trimmed text.
func (c *Chunker) Split(text string) []Chunk {
	var sentences []string
	for _, s := range sentenceSplitter.Split(text, -1) {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}

	var chunks []Chunk
	current := ""
	index := 0

	emit := func() {
		chunks = append(chunks, Chunk{Content: current + ".", Index: index})
		index++
	}

	for _, sentence := range sentences {
		potential := sentence
		if current != "" {
			potential = current + ". " + sentence
		}
		if len(potential) <= c.Size {
			current = potential
			continue
		}
		if current != "" {
			emit()
		}
		current = sentence
	}

	if current != "" {
		emit()
	}
	return chunks
}
