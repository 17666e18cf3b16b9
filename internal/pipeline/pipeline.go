// Package pipeline turns a PDF on disk into chunks ready for indexing.
package pipeline

import (
	"fmt"
	"log/slog"

	"pdfqa/internal/domain"
)

// Defaults for chunk geometry.
const (
	DefaultChunkSize            = 1000
	DefaultChunkOverlap         = 200
	DefaultMaxChunksPerDocument = 1000
)

// Extractor reads sanitized, non-empty pages from a document.
type Extractor interface {
	Extract(path string) ([]domain.PageRecord, error)
}

// Segmenter splits text into overlapping chunks.
type Segmenter interface {
	Segment(text string, chunkSize, overlap int) []string
}

// Config holds the chunking parameters.
type Config struct {
	ChunkSize            int
	ChunkOverlap         int
	MaxChunksPerDocument int
}

// Pipeline sequences extraction and segmentation. It does not know the
// identity of the document; callers complete the metadata.
type Pipeline struct {
	extractor Extractor
	segmenter Segmenter
	cfg       Config
	log       *slog.Logger
}

func New(extractor Extractor, segmenter Segmenter, cfg Config, log *slog.Logger) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 0
	}
	if cfg.MaxChunksPerDocument <= 0 {
		cfg.MaxChunksPerDocument = DefaultMaxChunksPerDocument
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{extractor: extractor, segmenter: segmenter, cfg: cfg, log: log}
}

// Process extracts the document at path and chunks every page. Chunk
// indexes restart at zero on each page. Output is truncated at the
// per-document chunk limit. A document without text fails with
// domain.ErrNoContent.
func (p *Pipeline) Process(path string) ([]string, []domain.PartialMetadata, error) {
	pages, err := p.extractor.Extract(path)
	if err != nil {
		return nil, nil, err
	}
	if len(pages) == 0 {
		return nil, nil, fmt.Errorf("%w: no text found in PDF", domain.ErrNoContent)
	}

	var (
		chunks []string
		meta   []domain.PartialMetadata
	)
pages:
	for _, page := range pages {
		for i, chunk := range p.segmenter.Segment(page.Content, p.cfg.ChunkSize, p.cfg.ChunkOverlap) {
			if len(chunks) == p.cfg.MaxChunksPerDocument {
				p.log.Warn("document exceeds chunk limit, ignoring remaining text",
					"limit", p.cfg.MaxChunksPerDocument, "page", page.PageNumber)
				break pages
			}
			chunks = append(chunks, chunk)
			meta = append(meta, domain.PartialMetadata{PageNumber: page.PageNumber, ChunkIndex: i})
		}
	}
	if len(chunks) == 0 {
		return nil, nil, fmt.Errorf("%w: no chunks produced", domain.ErrNoContent)
	}
	p.log.Info("processed PDF", "pages", len(pages), "chunks", len(chunks))
	return chunks, meta, nil
}
