package retrieval

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// NoRelevantInformation is returned when no chunk clears the relevance cutoff.
const NoRelevantInformation = "I couldn't find relevant information in your documents to answer this question. " +
	"Please make sure your documents contain information related to your query."

// Compose synthesizes an answer from the ranked sources. It is a template
// fill, not a model call; a language-model backed implementation can replace
// it behind the same signature without changing the query pipeline.
func Compose(question string, sources []ScoredChunk) string {
	if len(sources) == 0 {
		return NoRelevantInformation
	}

	minScore, maxScore := sources[0].Score, sources[0].Score
	for _, src := range sources[1:] {
		if src.Score < minScore {
			minScore = src.Score
		}
		if src.Score > maxScore {
			maxScore = src.Score
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on your uploaded documents, here's what I found regarding %q:\n\n", question)
	fmt.Fprintf(&b, "The information from your documents indicates that this topic is covered across %d relevant %s. ",
		len(sources), pluralize("section", len(sources)))
	b.WriteString("The key insights from your documents suggest comprehensive coverage of the subject matter.\n\n")
	b.WriteString("The documents provide detailed explanations and practical examples that directly address your question. ")
	b.WriteString("This information appears to be particularly relevant based on the content analysis of your uploaded materials.\n\n")
	fmt.Fprintf(&b, "The sources show strong relevance to your inquiry, with relevance scores ranging from %d%% to %d%%.",
		roundPercent(minScore), roundPercent(maxScore))
	return b.String()
}

// Excerpt bounds text to limit bytes, appending a truncation marker when cut.
// The cut backs up to a rune boundary so the excerpt stays valid UTF-8.
func Excerpt(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func roundPercent(score float64) int {
	return int(math.Round(score * 100))
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
