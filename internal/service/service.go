// Package service implements the upload and question handlers on top of
// the ingestion pipeline, the vector store and answer synthesis.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"pdfqa/internal/answer"
	"pdfqa/internal/catalog"
	"pdfqa/internal/domain"
)

// Processor turns a PDF on disk into chunks with page-relative metadata.
type Processor interface {
	Process(path string) ([]string, []domain.PartialMetadata, error)
}

// Store is the vector store as used by the handlers.
type Store interface {
	AddDocuments(ctx context.Context, chunks []string, meta []domain.ChunkMetadata) error
	AddDocumentMetadata(id string, meta domain.DocumentMetadata)
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
	Save(dir string) error
	Stats() domain.Stats
}

// Catalog records ingested documents. It is optional.
type Catalog interface {
	Record(ctx context.Context, id string, meta domain.DocumentMetadata) error
	FindByHash(ctx context.Context, hash string) (catalog.Entry, bool, error)
}

// Options configures a Service.
type Options struct {
	// DataDir receives uploads while they are processed.
	DataDir string
	// VectorDir is where the store is saved after each upload.
	VectorDir         string
	MaxFileSize       int64
	MaxQuestionLength int
	DefaultResults    int
	RateLimit         string
	Logger            *slog.Logger
}

// UploadResult reports a processed upload.
type UploadResult struct {
	DocumentID     string        `json:"document_id"`
	Filename       string        `json:"filename"`
	PagesProcessed int           `json:"pages_processed"`
	ChunksCount    int           `json:"chunks_count"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// AskResult is an answer with the sources it was drawn from.
type AskResult struct {
	Answer         string          `json:"answer"`
	Sources        []answer.Source `json:"sources"`
	Query          string          `json:"query"`
	ProcessingTime time.Duration   `json:"processing_time"`
}

// Service wires the handlers to their collaborators.
type Service struct {
	processor Processor
	store     Store
	answerer  answer.Answerer
	catalog   Catalog
	limiter   *Limiter
	opts      Options
	log       *slog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Service. cat may be nil.
func New(processor Processor, store Store, answerer answer.Answerer, cat Catalog, opts Options) (*Service, error) {
	limiter, err := NewLimiter(opts.RateLimit)
	if err != nil {
		return nil, err
	}
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.VectorDir == "" {
		opts.VectorDir = filepath.Join(opts.DataDir, "vector_db")
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 50 * 1024 * 1024
	}
	if opts.MaxQuestionLength <= 0 {
		opts.MaxQuestionLength = 1000
	}
	if opts.DefaultResults <= 0 {
		opts.DefaultResults = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		processor: processor,
		store:     store,
		answerer:  answerer,
		catalog:   cat,
		limiter:   limiter,
		opts:      opts,
		log:       opts.Logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// UploadFile ingests the PDF at path under its base name.
func (s *Service) UploadFile(ctx context.Context, path string) (UploadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return UploadResult{}, fmt.Errorf("read %s: %w", path, err)
	}
	return s.Upload(ctx, filepath.Base(path), content)
}

// Upload validates and ingests one PDF. A failure to persist the store
// after ingestion is logged and does not fail the upload.
func (s *Service) Upload(ctx context.Context, filename string, content []byte) (UploadResult, error) {
	start := s.now()
	if !s.limiter.Allow() {
		return UploadResult{}, domain.ErrRateLimited
	}
	if !IsPDFName(filename) {
		return UploadResult{}, fmt.Errorf("%w: only PDF files are allowed", domain.ErrInvalidInput)
	}
	if len(content) == 0 {
		return UploadResult{}, fmt.Errorf("%w: empty file uploaded", domain.ErrInvalidInput)
	}
	if int64(len(content)) > s.opts.MaxFileSize {
		return UploadResult{}, fmt.Errorf("%w: maximum size is %s",
			domain.ErrFileTooLarge, humanize.IBytes(uint64(s.opts.MaxFileSize)))
	}

	docID := s.newID()
	safeName := SanitizeFilename(filename)
	fileHash := FileHash(content)

	if err := os.MkdirAll(s.opts.DataDir, 0o755); err != nil {
		return UploadResult{}, fmt.Errorf("create data dir: %w", err)
	}
	uploadPath := filepath.Join(s.opts.DataDir, docID+".pdf")
	defer s.cleanup(uploadPath)
	if err := os.WriteFile(uploadPath, content, 0o600); err != nil {
		return UploadResult{}, fmt.Errorf("write upload: %w", err)
	}
	s.log.Info("processing PDF", "filename", safeName, "document_id", docID)

	chunks, partial, err := s.processor.Process(uploadPath)
	if err != nil {
		return UploadResult{}, err
	}
	meta := make([]domain.ChunkMetadata, len(partial))
	pages := make(map[int]struct{})
	for i, p := range partial {
		meta[i] = domain.ChunkMetadata{
			DocumentID: docID,
			Filename:   safeName,
			PageNumber: p.PageNumber,
			ChunkIndex: p.ChunkIndex,
			ChunkID:    domain.ChunkID(docID, p.PageNumber, p.ChunkIndex),
			FileHash:   fileHash,
		}
		pages[p.PageNumber] = struct{}{}
	}
	if err := s.store.AddDocuments(ctx, chunks, meta); err != nil {
		return UploadResult{}, err
	}

	docMeta := domain.DocumentMetadata{
		Filename:    safeName,
		PagesCount:  len(pages),
		ChunksCount: len(chunks),
		UploadTime:  s.now().UTC(),
		FileHash:    fileHash,
		FileSize:    int64(len(content)),
	}
	s.store.AddDocumentMetadata(docID, docMeta)
	if err := s.store.Save(s.opts.VectorDir); err != nil {
		s.log.Error("failed to save vector store", "error", err)
	}
	s.recordCatalog(ctx, docID, docMeta)

	elapsed := s.now().Sub(start)
	s.log.Info("document processed", "document_id", docID, "pages", len(pages), "chunks", len(chunks), "elapsed", elapsed)
	return UploadResult{
		DocumentID:     docID,
		Filename:       safeName,
		PagesProcessed: len(pages),
		ChunksCount:    len(chunks),
		ProcessingTime: elapsed,
	}, nil
}

func (s *Service) recordCatalog(ctx context.Context, id string, meta domain.DocumentMetadata) {
	if s.catalog == nil {
		return
	}
	if prev, found, err := s.catalog.FindByHash(ctx, meta.FileHash); err != nil {
		s.log.Warn("catalog lookup failed", "error", err)
	} else if found {
		s.log.Warn("duplicate document uploaded", "document_id", id, "previous_document_id", prev.ID, "file_hash", meta.FileHash)
	}
	if err := s.catalog.Record(ctx, id, meta); err != nil {
		s.log.Warn("catalog record failed", "document_id", id, "error", err)
	}
}

func (s *Service) cleanup(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("failed to clean up temporary file", "path", path, "error", err)
	}
}

// Ask answers question from the most similar chunks. maxResults <= 0 uses
// the configured default.
func (s *Service) Ask(ctx context.Context, question string, maxResults int) (AskResult, error) {
	start := s.now()
	if !s.limiter.Allow() {
		return AskResult{}, domain.ErrRateLimited
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return AskResult{}, fmt.Errorf("%w: question must not be empty", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(question) > s.opts.MaxQuestionLength {
		return AskResult{}, fmt.Errorf("%w: question longer than %d characters",
			domain.ErrInvalidInput, s.opts.MaxQuestionLength)
	}
	if maxResults <= 0 {
		maxResults = s.opts.DefaultResults
	}

	results, err := s.store.Search(ctx, question, maxResults)
	if err != nil {
		return AskResult{}, err
	}
	if len(results) == 0 {
		return AskResult{
			Answer:         answer.NoDocumentsMessage,
			Sources:        []answer.Source{},
			Query:          question,
			ProcessingTime: s.now().Sub(start),
		}, nil
	}
	text, err := s.answerer.Answer(ctx, question, results)
	if err != nil {
		return AskResult{}, err
	}
	elapsed := s.now().Sub(start)
	s.log.Info("question answered", "sources", len(results), "elapsed", elapsed)
	return AskResult{
		Answer:         text,
		Sources:        answer.PrepareSources(results),
		Query:          question,
		ProcessingTime: elapsed,
	}, nil
}

// Stats reports the store contents.
func (s *Service) Stats() domain.Stats { return s.store.Stats() }

// IsPDFName reports whether filename has a .pdf extension whose MIME type
// is application/pdf.
func IsPDFName(filename string) bool {
	ext := filepath.Ext(filename)
	if !strings.EqualFold(ext, ".pdf") {
		return false
	}
	base, _, _ := strings.Cut(mime.TypeByExtension(strings.ToLower(ext)), ";")
	return base == "application/pdf"
}

// SanitizeFilename keeps only ASCII letters, digits, '.', '-' and '_',
// truncated to 255 bytes.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 255 {
		out = out[:255]
	}
	return out
}

// FileHash is the hex SHA-256 digest of content.
func FileHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
