package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSegment_ShortTextSingleChunk(t *testing.T) {
	s := NewSegmenter(10)
	chunks := s.Segment("  hello world \n", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSegment_ExactlyChunkSize(t *testing.T) {
	s := NewSegmenter(10)
	text := strings.Repeat("a", 50)
	assert.Equal(t, []string{text}, s.Segment(text, 50, 10))
}

func TestSegment_BlankText(t *testing.T) {
	s := NewSegmenter(10)
	assert.Empty(t, s.Segment("   \n\t", 100, 10))
}

func TestSegment_AlphaBetaScenario(t *testing.T) {
	vocab := []string{"Alpha", "beta", "gamma", "delta", "epsilon"}
	var b strings.Builder
	for i := 0; b.Len() < 1200; i++ {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(vocab[i%len(vocab)])
	}
	text := b.String()[:1200]

	chunks := NewSegmenter(1000).Segment(text, 1000, 200)
	require.Len(t, chunks, 2)
	assert.LessOrEqual(t, len(chunks[0]), 1000)

	require.True(t, strings.HasSuffix(text, chunks[1]))
	require.True(t, strings.HasPrefix(text, chunks[0]))
	firstEnd := len(chunks[0])
	secondStart := len(text) - len(chunks[1])
	assert.Less(t, secondStart, firstEnd)
	assert.LessOrEqual(t, firstEnd-secondStart, 200)
}

func TestSegment_NoGapsWithoutWhitespace(t *testing.T) {
	text := strings.Repeat("abcdefghij", 37)
	chunks := NewSegmenter(100).Segment(text, 50, 10)

	covered := make([]bool, len(text))
	for i, c := range chunks {
		start := i * 40
		require.Equal(t, text[start:start+len(c)], c, "chunk %d", i)
		for j := start; j < start+len(c); j++ {
			covered[j] = true
		}
		if i > 0 {
			prev := chunks[i-1]
			assert.Equal(t, prev[len(prev)-10:], c[:10], "overlap between %d and %d", i-1, i)
		}
	}
	for i, ok := range covered {
		assert.True(t, ok, "position %d not covered", i)
	}
}

func TestSegment_NoGapsWithWordBoundaries(t *testing.T) {
	text := words(400)
	chunks := NewSegmenter(1000).Segment(text, 120, 30)
	require.Greater(t, len(chunks), 1)

	covered := make([]bool, len(text))
	from := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
		idx := strings.Index(text[from:], c)
		require.GreaterOrEqual(t, idx, 0, "chunk %q not found after %d", c, from)
		start := from + idx
		for j := start; j < start+len(c); j++ {
			covered[j] = true
		}
		from = start + 1
	}
	for i, ok := range covered {
		if text[i] != ' ' {
			assert.True(t, ok, "position %d not covered", i)
		}
	}
}

func TestSegment_RespectsMaxChunks(t *testing.T) {
	s := NewSegmenter(3)
	chunks := s.Segment(words(1000), 50, 10)
	assert.Len(t, chunks, 3)
}

func TestSegment_OverlapNotSmallerThanChunkSizeTerminates(t *testing.T) {
	s := NewSegmenter(25)
	text := strings.Repeat("x", 200)

	chunks := s.Segment(text, 10, 10)
	assert.Len(t, chunks, 25)

	chunks = s.Segment(text, 10, 50)
	assert.Len(t, chunks, 25)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 10)
	}
}

func TestSegment_MultibyteText(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)
	chunks := NewSegmenter(100).Segment(text, 40, 8)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 40)
	}
}

func TestNewSegmenter_Defaults(t *testing.T) {
	assert.Equal(t, DefaultMaxChunks, NewSegmenter(0).MaxChunks())
	assert.Equal(t, 7, NewSegmenter(7).MaxChunks())
}
