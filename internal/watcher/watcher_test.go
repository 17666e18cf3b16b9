package watcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfqa/internal/service"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeUploader) UploadFile(_ context.Context, path string) (service.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filepath.Base(path))
	if filepath.Base(path) == "broken.pdf" {
		return service.UploadResult{}, errors.New("no text")
	}
	return service.UploadResult{DocumentID: "id-" + filepath.Base(path)}, nil
}

func (f *fakeUploader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func startWatcher(t *testing.T, inbox string, up Uploader) {
	t.Helper()
	w := New(inbox, 20*time.Millisecond, up, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(inbox, FailedDir))
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestWatcher_IngestsNewFiles(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	up := &fakeUploader{}
	startWatcher(t, inbox, up)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "good.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "broken.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("hi"), 0o644))

	require.Eventually(t, func() bool {
		_, okErr := os.Stat(filepath.Join(inbox, ProcessedDir, "good.pdf"))
		_, failErr := os.Stat(filepath.Join(inbox, FailedDir, "broken.pdf"))
		return okErr == nil && failErr == nil
	}, 3*time.Second, 20*time.Millisecond)

	assert.NoFileExists(t, filepath.Join(inbox, "good.pdf"))
	assert.FileExists(t, filepath.Join(inbox, "notes.txt"))
	assert.ElementsMatch(t, []string{"good.pdf", "broken.pdf"}, up.Calls())
}

func TestWatcher_IngestsExistingFiles(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	require.NoError(t, os.MkdirAll(inbox, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "waiting.pdf"), []byte("%PDF"), 0o644))

	up := &fakeUploader{}
	startWatcher(t, inbox, up)

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(inbox, ProcessedDir, "waiting.pdf"))
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"waiting.pdf"}, up.Calls())
}

func TestWatcher_DebouncesRepeatedWrites(t *testing.T) {
	inbox := filepath.Join(t.TempDir(), "inbox")
	up := &fakeUploader{}
	startWatcher(t, inbox, up)
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(inbox, "growing.pdf")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.Write([]byte("%PDF chunk "))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(inbox, ProcessedDir, "growing.pdf"))
		return err == nil
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"growing.pdf"}, up.Calls())
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.pdf")
	assert.Equal(t, p, uniquePath(p))
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	assert.Equal(t, filepath.Join(dir, "a-1.pdf"), uniquePath(p))
}

func TestDeliver_StopsWhenRunReturns(t *testing.T) {
	ready := make(chan string)
	done := make(chan struct{})
	result := make(chan bool, 1)
	go func() { result <- deliver(context.Background(), "late.pdf", ready, done) }()

	close(done)
	select {
	case delivered := <-result:
		assert.False(t, delivered)
	case <-time.After(time.Second):
		t.Fatal("pending delivery still blocked after the watcher stopped")
	}
}

func TestDeliver_HandsOffPath(t *testing.T) {
	ready := make(chan string, 1)
	assert.True(t, deliver(context.Background(), "a.pdf", ready, make(chan struct{})))
	assert.Equal(t, "a.pdf", <-ready)
}
