// Package answer defines answer synthesis over retrieved chunks.
package answer

import (
	"context"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"pdfqa/internal/domain"
)

// Fixed replies used when nothing was retrieved.
const (
	NoResultsMessage   = "No relevant information found to answer your question."
	NoDocumentsMessage = NoResultsMessage + " Please make sure you have uploaded PDF documents."
)

// Defaults for context assembly and source previews.
const (
	DefaultMaxContextLength = 4000
	PreviewLength           = 200
)

// Answerer produces an answer to question from ranked search results.
type Answerer interface {
	Answer(ctx context.Context, question string, results []domain.SearchResult) (string, error)
}

// Source is a trimmed-down view of a search result returned with answers.
type Source struct {
	Content         string  `json:"content"`
	PageNumber      int     `json:"page_number"`
	Filename        string  `json:"filename"`
	SimilarityScore float64 `json:"similarity_score"`
	ChunkID         string  `json:"chunk_id"`
}

// BuildContext renders results as "[Page N]: content" blocks separated by
// blank lines, in rank order. It stops before the rendered blocks exceed
// maxLength characters.
func BuildContext(results []domain.SearchResult, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}
	parts := make([]string, 0, len(results))
	total := 0
	for _, r := range results {
		block := "[Page " + strconv.Itoa(r.Metadata.PageNumber) + "]: " + r.Content
		n := utf8.RuneCountInString(block)
		if total+n > maxLength {
			break
		}
		parts = append(parts, block)
		total += n
	}
	return strings.Join(parts, "\n\n")
}

// PrepareSources converts results into previews. Content longer than
// PreviewLength characters is cut and suffixed with "..."; scores are
// rounded to four decimals.
func PrepareSources(results []domain.SearchResult) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		preview := r.Content
		if runes := []rune(preview); len(runes) > PreviewLength {
			preview = string(runes[:PreviewLength]) + "..."
		}
		sources = append(sources, Source{
			Content:         preview,
			PageNumber:      r.Metadata.PageNumber,
			Filename:        r.Metadata.Filename,
			SimilarityScore: math.Round(r.SimilarityScore*1e4) / 1e4,
			ChunkID:         r.Metadata.ChunkID,
		})
	}
	return sources
}
