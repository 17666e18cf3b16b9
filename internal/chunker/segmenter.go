package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxChunks bounds the chunks produced for one call to Segment.
const DefaultMaxChunks = 1000

// Segmenter splits page text into bounded, overlapping character windows,
// preferring to cut at whitespace.
type Segmenter struct {
	maxChunks int
}

func NewSegmenter(maxChunks int) *Segmenter {
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &Segmenter{maxChunks: maxChunks}
}

// MaxChunks returns the per-call chunk cap.
func (s *Segmenter) MaxChunks() int { return s.maxChunks }

// Segment splits text into chunks of at most chunkSize characters with
// overlap characters shared between neighbours. Chunks are trimmed and
// blank windows are dropped. Output stops silently at the chunk cap.
func (s *Segmenter) Segment(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	if overlap < 0 {
		overlap = 0
	}
	runes := []rune(text)
	n := len(runes)
	if n <= chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < n && len(chunks) < s.maxChunks {
		end := start + chunkSize
		if end > n {
			end = n
		}
		window := runes[start:end]
		if end < n {
			if cut := lastSpace(window); cut > chunkSize/2 {
				window = window[:cut]
				end = start + cut
			}
		}
		if chunk := strings.TrimSpace(string(window)); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= n {
			break
		}
		next := end - overlap
		if next <= start {
			// overlap >= window length would stall the cursor
			next = start + 1
		}
		start = next
	}
	return chunks
}

func lastSpace(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return -1
}
