// Package catalog keeps a SQLite record of every ingested document.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"pdfqa/internal/domain"
)

// timeLayout is fixed-width so upload times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one catalogued document.
type Entry struct {
	ID string
	domain.DocumentMetadata
}

// row mirrors the documents table.
type row struct {
	ID          string `db:"id"`
	Filename    string `db:"filename"`
	FileHash    string `db:"file_hash"`
	PagesCount  int    `db:"pages_count"`
	ChunksCount int    `db:"chunks_count"`
	FileSize    int64  `db:"file_size"`
	UploadTime  string `db:"upload_time"`
}

func (r row) entry() (Entry, error) {
	t, err := time.Parse(timeLayout, r.UploadTime)
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: document %s: bad upload_time %q: %w", r.ID, r.UploadTime, err)
	}
	return Entry{
		ID: r.ID,
		DocumentMetadata: domain.DocumentMetadata{
			Filename:    r.Filename,
			PagesCount:  r.PagesCount,
			ChunksCount: r.ChunksCount,
			UploadTime:  t,
			FileHash:    r.FileHash,
			FileSize:    r.FileSize,
		},
	}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	file_hash TEXT NOT NULL,
	pages_count INTEGER NOT NULL,
	chunks_count INTEGER NOT NULL,
	file_size INTEGER NOT NULL,
	upload_time TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_documents_file_hash ON documents(file_hash)`,
}

// Catalog is a SQLite-backed document catalog.
type Catalog struct {
	db *sqlx.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("catalog: create directory: %w", err)
	}
	db, err := sqlx.Connect("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("catalog: connect: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("catalog: create schema: %w", err)
		}
	}
	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error { return c.db.Close() }

// Record inserts or replaces the entry for id.
func (c *Catalog) Record(ctx context.Context, id string, meta domain.DocumentMetadata) error {
	_, err := c.db.NamedExecContext(ctx, `INSERT OR REPLACE INTO documents
		(id, filename, file_hash, pages_count, chunks_count, file_size, upload_time)
		VALUES (:id, :filename, :file_hash, :pages_count, :chunks_count, :file_size, :upload_time)`,
		row{
			ID:          id,
			Filename:    meta.Filename,
			FileHash:    meta.FileHash,
			PagesCount:  meta.PagesCount,
			ChunksCount: meta.ChunksCount,
			FileSize:    meta.FileSize,
			UploadTime:  meta.UploadTime.UTC().Format(timeLayout),
		})
	if err != nil {
		return fmt.Errorf("catalog: record %s: %w", id, err)
	}
	return nil
}

// FindByHash returns the earliest entry with the given file hash.
func (c *Catalog) FindByHash(ctx context.Context, hash string) (Entry, bool, error) {
	var r row
	err := c.db.GetContext(ctx, &r, `SELECT * FROM documents WHERE file_hash = ? ORDER BY upload_time, id LIMIT 1`, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("catalog: find by hash: %w", err)
	}
	e, err := r.entry()
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// List returns all entries, oldest first.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	var rows []row
	if err := c.db.SelectContext(ctx, &rows, `SELECT * FROM documents ORDER BY upload_time, id`); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
