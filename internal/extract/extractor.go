// Package extract reads per-page text out of PDF documents.
package extract

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"pdfqa/internal/domain"
)

// DefaultMaxPages caps how many pages of a document are read.
const DefaultMaxPages = 500

// Document is an opened PDF. Pages are numbered from 1.
type Document interface {
	NumPage() int
	PageText(page int) (string, error)
	Close() error
}

// OpenFunc opens the document at path.
type OpenFunc func(path string) (Document, error)

// Extractor turns a PDF file into ordered, sanitized page records.
type Extractor struct {
	maxPages int
	open     OpenFunc
	log      *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithOpenFunc replaces the PDF backend.
func WithOpenFunc(open OpenFunc) Option {
	return func(e *Extractor) {
		if open != nil {
			e.open = open
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Extractor) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an Extractor reading at most maxPages pages per document.
func New(maxPages int, opts ...Option) *Extractor {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	e := &Extractor{
		maxPages: maxPages,
		open:     OpenPDF,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns one record per non-blank page, up to the page cap.
// Pages past the cap are ignored. Any failure to open or read the
// document is reported as domain.ErrInvalidDocument.
func (e *Extractor) Extract(path string) (pages []domain.PageRecord, err error) {
	defer func() {
		// the PDF parser panics on some malformed inputs
		if r := recover(); r != nil {
			e.log.Error("pdf parser panic", "path", path, "panic", r)
			pages, err = nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, r)
		}
	}()

	doc, err := e.open(path)
	if err != nil {
		e.log.Error("error extracting pdf text", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if count > e.maxPages {
		e.log.Warn("document exceeds page limit, ignoring remaining pages", "pages", count, "limit", e.maxPages)
		count = e.maxPages
	}
	for n := 1; n <= count; n++ {
		text, err := doc.PageText(n)
		if err != nil {
			e.log.Error("error extracting pdf text", "path", path, "page", n, "error", err)
			return nil, fmt.Errorf("%w: page %d: %v", domain.ErrInvalidDocument, n, err)
		}
		safe := Sanitize(text)
		content := strings.TrimSpace(safe)
		if content == "" {
			continue
		}
		pages = append(pages, domain.PageRecord{
			PageNumber: n,
			Content:    content,
			CharCount:  utf8.RuneCountInString(safe),
		})
	}
	e.log.Info("extracted text from pages", "pages", len(pages))
	return pages, nil
}

// Sanitize drops every rune that is neither printable nor whitespace.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}

type pdfDocument struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenPDF opens path with the ledongthuc/pdf reader.
func OpenPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return nil, err
	}
	return &pdfDocument{file: f, reader: r}, nil
}

func (d *pdfDocument) NumPage() int { return d.reader.NumPage() }

func (d *pdfDocument) PageText(page int) (string, error) {
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *pdfDocument) Close() error { return d.file.Close() }
