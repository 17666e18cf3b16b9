package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/chunker"
	"pdfqa/internal/domain"
)

type fakeExtractor struct {
	pages []domain.PageRecord
	err   error
}

func (f fakeExtractor) Extract(string) ([]domain.PageRecord, error) { return f.pages, f.err }

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func page(n int, content string) domain.PageRecord {
	return domain.PageRecord{PageNumber: n, Content: content, CharCount: len(content)}
}

func alphaBeta(n int) string {
	var b strings.Builder
	words := []string{"Alpha", "beta", "gamma", "delta", "epsilon"}
	for i := 0; b.Len() < n; i++ {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(words[i%len(words)])
	}
	return b.String()[:n]
}

func TestProcess_ChunksPerPage(t *testing.T) {
	ext := fakeExtractor{pages: []domain.PageRecord{
		page(1, "short first page"),
		page(3, alphaBeta(1200)),
	}}
	p := New(ext, chunker.NewSegmenter(0), Config{ChunkSize: 1000, ChunkOverlap: 200}, quiet())

	chunks, meta, err := p.Process("doc.pdf")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Len(t, meta, 3)
	assert.Equal(t, "short first page", chunks[0])
	assert.Equal(t, domain.PartialMetadata{PageNumber: 1, ChunkIndex: 0}, meta[0])
	assert.Equal(t, domain.PartialMetadata{PageNumber: 3, ChunkIndex: 0}, meta[1])
	assert.Equal(t, domain.PartialMetadata{PageNumber: 3, ChunkIndex: 1}, meta[2])
}

func TestProcess_NoPages(t *testing.T) {
	p := New(fakeExtractor{}, chunker.NewSegmenter(0), Config{}, quiet())
	_, _, err := p.Process("doc.pdf")
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

type emptySegmenter struct{}

func (emptySegmenter) Segment(string, int, int) []string { return nil }

func TestProcess_NoChunks(t *testing.T) {
	p := New(fakeExtractor{pages: []domain.PageRecord{page(1, "x")}}, emptySegmenter{}, Config{}, quiet())
	_, _, err := p.Process("doc.pdf")
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestProcess_ExtractionErrorPropagates(t *testing.T) {
	wantErr := fmt.Errorf("%w: broken xref", domain.ErrInvalidDocument)
	p := New(fakeExtractor{err: wantErr}, chunker.NewSegmenter(0), Config{}, quiet())
	_, _, err := p.Process("doc.pdf")
	assert.True(t, errors.Is(err, domain.ErrInvalidDocument))
}

func TestProcess_DocumentChunkLimit(t *testing.T) {
	pages := make([]domain.PageRecord, 10)
	for i := range pages {
		pages[i] = page(i+1, alphaBeta(300))
	}
	p := New(fakeExtractor{pages: pages}, chunker.NewSegmenter(0),
		Config{ChunkSize: 100, ChunkOverlap: 10, MaxChunksPerDocument: 7}, quiet())

	chunks, meta, err := p.Process("doc.pdf")
	require.NoError(t, err)
	assert.Len(t, chunks, 7)
	assert.Len(t, meta, 7)
	assert.Equal(t, 1, meta[0].PageNumber)
}

func TestNew_Defaults(t *testing.T) {
	p := New(fakeExtractor{}, chunker.NewSegmenter(0), Config{ChunkOverlap: -5}, nil)
	assert.Equal(t, DefaultChunkSize, p.cfg.ChunkSize)
	assert.Zero(t, p.cfg.ChunkOverlap)
	assert.Equal(t, DefaultMaxChunksPerDocument, p.cfg.MaxChunksPerDocument)
}
