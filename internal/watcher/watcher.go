// Package watcher ingests PDFs dropped into an inbox directory.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"pdfqa/internal/service"
)

// Subdirectories of the inbox that receive handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// DefaultDebounce is how long a file must be quiet before it is ingested.
const DefaultDebounce = 500 * time.Millisecond

// Uploader ingests a PDF from disk.
type Uploader interface {
	UploadFile(ctx context.Context, path string) (service.UploadResult, error)
}

// Watcher uploads PDFs written to its inbox once they stop changing, then
// moves each into processed/ or failed/.
type Watcher struct {
	inbox    string
	debounce time.Duration
	uploader Uploader
	log      *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher for inbox.
func New(inbox string, debounce time.Duration, uploader Uploader, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		inbox:    inbox,
		debounce: debounce,
		uploader: uploader,
		log:      log,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches the inbox until ctx is cancelled. PDFs already present when
// Run starts are ingested first.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range []string{w.inbox, filepath.Join(w.inbox, ProcessedDir), filepath.Join(w.inbox, FailedDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("watcher: create %s: %w", dir, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.inbox); err != nil {
		return fmt.Errorf("watcher: watch %s: %w", w.inbox, err)
	}
	w.log.Info("watching inbox", "dir", w.inbox, "debounce", w.debounce)

	ready := make(chan string, 16)
	done := make(chan struct{})
	defer close(done)
	defer w.stopTimers()

	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		return fmt.Errorf("watcher: list %s: %w", w.inbox, err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() && service.IsPDFName(e.Name()) {
			w.schedule(ctx, filepath.Join(w.inbox, e.Name()), ready, done)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(w.inbox) || !service.IsPDFName(ev.Name) {
				continue
			}
			w.schedule(ctx, ev.Name, ready, done)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case path := <-ready:
			w.mu.Lock()
			delete(w.timers, path)
			w.mu.Unlock()
			w.ingest(ctx, path)
		}
	}
}

// schedule (re)starts the quiet-period timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { deliver(ctx, path, ready, done) })
}

// deliver hands path to Run, giving up once Run has returned or ctx ends.
func deliver(ctx context.Context, path string, ready chan<- string, done <-chan struct{}) bool {
	select {
	case ready <- path:
		return true
	case <-done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

func (w *Watcher) ingest(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	res, err := w.uploader.UploadFile(ctx, path)
	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		w.log.Error("inbox upload failed", "file", path, "error", err)
	} else {
		w.log.Info("inbox upload done", "file", path, "document_id", res.DocumentID, "chunks", res.ChunksCount)
	}
	target := uniquePath(filepath.Join(w.inbox, dest, filepath.Base(path)))
	if err := os.Rename(path, target); err != nil {
		w.log.Error("failed to move inbox file", "file", path, "target", target, "error", err)
	}
}

// uniquePath returns path, or path with a numeric suffix if it exists.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
