package vectorstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"pdfqa/internal/domain"
)

// Artifact names inside the store directory.
const (
	IndexFile     = "index.bin"
	ChunksFile    = "chunks.json"
	MetadataFile  = "metadata.json"
	DocumentsFile = "documents.json"
)

func (s *Store) docsPath(dir string) string {
	if s.documentsPath != "" {
		return s.documentsPath
	}
	return filepath.Join(dir, DocumentsFile)
}

// Save writes the index, chunks, chunk metadata and document metadata.
// Each file is replaced atomically. No index file is written while the
// store is empty. After a failed Load, Save returns ErrPersistence
// without writing, so the unreadable artifacts are kept.
func (s *Store) Save(dir string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.loadErr != nil {
		return fmt.Errorf("%w: not overwriting artifacts that failed to load: %v", domain.ErrPersistence, s.loadErr)
	}

	// Mutations require writeMu, so the state is stable here.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrPersistence, dir, err)
	}

	if s.index.Len() > 0 {
		data, err := s.index.MarshalBinary()
		if err != nil {
			return fmt.Errorf("%w: encode index: %v", domain.ErrPersistence, err)
		}
		if err := writeFileAtomic(filepath.Join(dir, IndexFile), data); err != nil {
			return err
		}
	} else if err := os.Remove(filepath.Join(dir, IndexFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove stale index: %v", domain.ErrPersistence, err)
	}

	chunks := make([]string, len(s.records))
	meta := make([]domain.ChunkMetadata, len(s.records))
	for i, r := range s.records {
		chunks[i] = r.Chunk
		meta[i] = r.Metadata
	}
	if err := writeJSON(filepath.Join(dir, ChunksFile), chunks, false); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, MetadataFile), meta, false); err != nil {
		return err
	}
	docsPath := s.docsPath(dir)
	if err := os.MkdirAll(filepath.Dir(docsPath), 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrPersistence, filepath.Dir(docsPath), err)
	}
	if err := writeJSON(docsPath, s.documents, true); err != nil {
		return err
	}
	s.log.Info("saved vector store", "dir", dir, "chunks", len(s.records), "documents", len(s.documents))
	return nil
}

// Load replaces the store contents with what Save wrote to dir. A missing
// directory leaves the store empty and is not an error. A missing or
// unreadable document metadata file yields an empty mapping. Any other
// inconsistency fails the load, leaves the store contents untouched and
// blocks Save until a later Load succeeds.
func (s *Store) Load(dir string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.load(dir)
	s.loadErr = err
	return err
}

func (s *Store) load(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		s.log.Info("no persisted vector store, starting empty", "dir", dir)
		return nil
	} else if err != nil {
		return fmt.Errorf("%w: stat %s: %v", domain.ErrPersistence, dir, err)
	}

	var chunks []string
	if err := readJSON(filepath.Join(dir, ChunksFile), &chunks); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	var meta []domain.ChunkMetadata
	if err := readJSON(filepath.Join(dir, MetadataFile), &meta); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	index := s.newIndex(s.embedder.Dimension())
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	switch {
	case err == nil:
		if err := index.UnmarshalBinary(data); err != nil {
			return fmt.Errorf("%w: decode index: %v", domain.ErrPersistence, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("%w: read index: %v", domain.ErrPersistence, err)
	}

	if index.Len() != len(chunks) || len(chunks) != len(meta) {
		return fmt.Errorf("%w: inconsistent artifacts: %d vectors, %d chunks, %d metadata records",
			domain.ErrPersistence, index.Len(), len(chunks), len(meta))
	}
	if want := s.embedder.Dimension(); want > 0 && index.Len() > 0 && index.Dimension() != want {
		return fmt.Errorf("%w: index dimension %d does not match embedder dimension %d",
			domain.ErrPersistence, index.Dimension(), want)
	}

	records := make([]record, len(chunks))
	for i := range chunks {
		records[i] = record{Chunk: chunks[i], Metadata: meta[i]}
	}

	documents := make(map[string]domain.DocumentMetadata)
	if err := readJSON(s.docsPath(dir), &documents); err != nil {
		s.log.Warn("could not load document metadata, starting with none", "path", s.docsPath(dir), "error", err)
		documents = make(map[string]domain.DocumentMetadata)
	}
	if documents == nil {
		documents = make(map[string]domain.DocumentMetadata)
	}

	s.mu.Lock()
	s.index = index
	s.records = records
	s.documents = documents
	s.mu.Unlock()

	s.log.Info("loaded vector store", "dir", dir, "chunks", len(records), "documents", len(documents))
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPersistence, path, err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: write %s: %v", domain.ErrPersistence, path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: rename %s: %v", domain.ErrPersistence, path, err)
	}
	return nil
}
