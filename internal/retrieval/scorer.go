package retrieval

import (
	"sort"
	"strings"
	"unicode"
)

const (
	DefaultTopK     = 3
	DefaultMinScore = 0.2

	// scoreIncrement is added once per query token found in a chunk.
	scoreIncrement = 0.1
)

// Chunk is a scoring candidate tagged with its source document.
type Chunk struct {
	DocumentID   string
	DocumentName string
	Content      string
	Index        int
	Page         *int
}

// ScoredChunk is a chunk with its relevance score in [0,1].
type ScoredChunk struct {
	Chunk
	Score float64
}

// Scorer ranks chunks against a query with a deterministic lexical-overlap
// heuristic: the query is split into lowercase whitespace tokens and each
// token appearing as a substring of the chunk adds a fixed increment, clamped
// to 1.0. It is a stand-in for semantic similarity; any real similarity
// function can replace Rank behind the same signature.
type Scorer struct {
	TopK     int
	MinScore float64
}

// NewScorer returns a Scorer, falling back to defaults for out-of-range values.
func NewScorer(topK int, minScore float64) *Scorer {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minScore < 0 || minScore >= 1 {
		minScore = DefaultMinScore
	}
	return &Scorer{TopK: topK, MinScore: minScore}
}

// Rank returns at most TopK chunks scoring strictly above MinScore, ordered by
// descending score. Ties keep the chunks' original order.
func (s *Scorer) Rank(query string, chunks []Chunk) []ScoredChunk {
	tokens := Tokenize(query)

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score := Score(tokens, chunk.Content)
		if score > s.MinScore {
			scored = append(scored, ScoredChunk{Chunk: chunk, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > s.TopK {
		scored = scored[:s.TopK]
	}
	return scored
}

// Tokenize lowercases the query and splits it into whitespace-delimited
// tokens, trimming surrounding punctuation so "sky?" still matches "sky".
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

// Score computes the lexical-overlap score of a single chunk against
// pre-lowercased query tokens.
func Score(tokens []string, content string) float64 {
	lowered := strings.ToLower(content)
	score := 0.0
	for _, token := range tokens {
		if strings.Contains(lowered, token) {
			score += scoreIncrement
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
