// Package vectorstore holds ingested chunks, their metadata and the
// similarity index, and persists them to disk.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"pdfqa/internal/domain"
	"pdfqa/internal/embedding"
	"pdfqa/internal/vectorstore/memory"
)

// Defaults applied when Options leaves a limit unset.
const (
	DefaultMaxTotalChunks = 10000
	DefaultK              = 5
)

// record pairs a chunk with its metadata. records[i] corresponds to index
// position i.
type record struct {
	Chunk    string
	Metadata domain.ChunkMetadata
}

// Options configures a Store.
type Options struct {
	Embedder embedding.Embedder
	// NewIndex builds an empty index for the given dimension.
	// Defaults to the flat in-memory index.
	NewIndex       func(dimension int) Index
	MaxTotalChunks int
	DefaultK       int
	// DocumentsPath is the file holding the document metadata mapping.
	// Defaults to documents.json inside the directory passed to Save/Load.
	DocumentsPath string
	Logger        *slog.Logger
}

// Store is the single owner of indexed chunks. Mutations (AddDocuments,
// AddDocumentMetadata, Save, Load) are serialized by writeMu; readers take
// mu shared, and mu is held exclusively only while committing new state.
type Store struct {
	writeMu sync.Mutex

	mu        sync.RWMutex
	index     Index
	records   []record
	documents map[string]domain.DocumentMetadata

	// loadErr is set when Load found artifacts it could not read. Save
	// refuses to overwrite them until a later Load succeeds.
	loadErr error

	embedder      embedding.Embedder
	newIndex      func(dimension int) Index
	maxTotal      int
	defaultK      int
	documentsPath string
	log           *slog.Logger
}

// New creates an empty store.
func New(opts Options) (*Store, error) {
	if opts.Embedder == nil {
		return nil, fmt.Errorf("vectorstore: embedder is required")
	}
	if opts.NewIndex == nil {
		opts.NewIndex = func(dimension int) Index { return memory.New(dimension) }
	}
	if opts.MaxTotalChunks <= 0 {
		opts.MaxTotalChunks = DefaultMaxTotalChunks
	}
	if opts.DefaultK <= 0 {
		opts.DefaultK = DefaultK
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		index:         opts.NewIndex(opts.Embedder.Dimension()),
		documents:     make(map[string]domain.DocumentMetadata),
		embedder:      opts.Embedder,
		newIndex:      opts.NewIndex,
		maxTotal:      opts.MaxTotalChunks,
		defaultK:      opts.DefaultK,
		documentsPath: opts.DocumentsPath,
		log:           opts.Logger,
	}, nil
}

// AddDocuments embeds chunks and appends them with their metadata. The
// total-chunk cap is checked before any embedding call. On failure the
// store is left unchanged.
func (s *Store) AddDocuments(ctx context.Context, chunks []string, meta []domain.ChunkMetadata) error {
	if len(chunks) != len(meta) {
		return fmt.Errorf("%w: %d chunks with %d metadata records", domain.ErrInvalidInput, len(chunks), len(meta))
	}
	if len(chunks) == 0 {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// Only writers change records, and writeMu is held.
	current := len(s.records)
	if current+len(chunks) > s.maxTotal {
		return fmt.Errorf("%w: adding %d chunks to %d would exceed the limit of %d",
			domain.ErrCapacityExceeded, len(chunks), current, s.maxTotal)
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: %w: got %d vectors for %d chunks",
			domain.ErrRemoteProcessing, len(vectors), len(chunks))
	}
	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized[i] = append([]float32(nil), v...)
		embedding.Normalize(normalized[i])
	}

	added := make([]record, len(chunks))
	for i := range chunks {
		added[i] = record{Chunk: chunks[i], Metadata: meta[i]}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index.Len() == 0 && s.index.Dimension() <= 0 {
		s.index = s.newIndex(len(normalized[0]))
	}
	if err := s.index.Add(normalized); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}
	s.records = append(s.records, added...)
	s.log.Info("added chunks to vector store", "chunks", len(chunks), "total", len(s.records))
	return nil
}

// Search returns up to k chunks most similar to query, best first. A
// non-positive k uses the configured default; results never exceed 20.
func (s *Store) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	s.mu.RLock()
	empty := len(s.records) == 0
	s.mu.RUnlock()
	if empty {
		return nil, nil
	}
	if k <= 0 {
		k = s.defaultK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: %w: got %d vectors", domain.ErrRemoteProcessing, len(vectors))
	}
	q := append([]float32(nil), vectors[0]...)
	embedding.Normalize(q)

	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := s.index.Search(q, k)
	results := make([]domain.SearchResult, 0, len(matches))
	for _, m := range matches {
		r := s.records[m.Position]
		results = append(results, domain.SearchResult{
			Content:         r.Chunk,
			Metadata:        r.Metadata,
			SimilarityScore: m.Score,
		})
	}
	s.log.Info("searched vector store", "results", len(results))
	return results, nil
}

// AddDocumentMetadata inserts or replaces the metadata for a document.
func (s *Store) AddDocumentMetadata(id string, meta domain.DocumentMetadata) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[id] = meta
}

// Document returns the metadata stored for id.
func (s *Store) Document(id string) (domain.DocumentMetadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.documents[id]
	return meta, ok
}

// Documents returns a copy of the document metadata mapping.
func (s *Store) Documents() map[string]domain.DocumentMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.DocumentMetadata, len(s.documents))
	for id, meta := range s.documents {
		out[id] = meta
	}
	return out
}

// Stats reports document and chunk counts. Documents are ordered by upload
// time, then filename.
func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.DocumentMetadata, 0, len(s.documents))
	for _, meta := range s.documents {
		docs = append(docs, meta)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadTime.Equal(docs[j].UploadTime) {
			return docs[i].UploadTime.Before(docs[j].UploadTime)
		}
		return docs[i].Filename < docs[j].Filename
	})
	return domain.Stats{
		TotalDocuments: len(s.documents),
		TotalChunks:    len(s.records),
		IndexSize:      s.index.Len(),
		Documents:      docs,
	}
}
