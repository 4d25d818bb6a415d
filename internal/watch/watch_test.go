package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	paths   []string
	running int
	maxSeen int
	delay   time.Duration
	seen    chan string
}

func newRecorder(delay time.Duration) *recorder {
	return &recorder{delay: delay, seen: make(chan string, 16)}
}

func (r *recorder) handle(ctx context.Context, path string) error {
	r.mu.Lock()
	r.running++
	if r.running > r.maxSeen {
		r.maxSeen = r.running
	}
	r.paths = append(r.paths, path)
	r.mu.Unlock()

	time.Sleep(r.delay)

	r.mu.Lock()
	r.running--
	r.mu.Unlock()
	r.seen <- path
	return nil
}

func startWatcher(t *testing.T, dir string, handler Handler) (cancel func(), errc chan error) {
	t.Helper()
	w, err := New(dir, handler, nil, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancelCtx := context.WithCancel(context.Background())
	errc = make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	// give Run a moment to enter its loop
	time.Sleep(20 * time.Millisecond)
	return cancelCtx, errc
}

func waitFor(t *testing.T, seen chan string) string {
	t.Helper()
	select {
	case path := <-seen:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
		return ""
	}
}

func TestWatcherHandlesSettledMediaFiles(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder(0)
	cancel, errc := startWatcher(t, dir, rec.handle)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	media := filepath.Join(dir, "lecture.mp4")
	if err := os.WriteFile(media, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(media, []byte("complete"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := waitFor(t, rec.seen); got != media {
		t.Errorf("handled %q, want %q", got, media)
	}

	// repeated writes within the settle window collapse into one job
	select {
	case extra := <-rec.seen:
		t.Errorf("unexpected second job for %q", extra)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestWatcherProcessesSequentially(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder(100 * time.Millisecond)
	cancel, errc := startWatcher(t, dir, rec.handle)
	defer func() {
		cancel()
		<-errc
	}()

	for _, name := range []string{"a.wav", "b.mp3", "c.mkv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		waitFor(t, rec.seen)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.maxSeen != 1 {
		t.Errorf("max concurrent handlers = %d, want 1", rec.maxSeen)
	}
	if len(rec.paths) != 3 {
		t.Errorf("handled %d files, want 3", len(rec.paths))
	}
}

func TestWatcherContinuesAfterHandlerError(t *testing.T) {
	dir := t.TempDir()
	seen := make(chan string, 4)
	handler := func(ctx context.Context, path string) error {
		seen <- path
		return errors.New("engine failed")
	}
	cancel, errc := startWatcher(t, dir, handler)
	defer func() {
		cancel()
		<-errc
	}()

	first := filepath.Join(dir, "one.mp4")
	if err := os.WriteFile(first, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, seen)

	second := filepath.Join(dir, "two.mp4")
	if err := os.WriteFile(second, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := waitFor(t, seen); got != second {
		t.Errorf("handled %q, want %q", got, second)
	}
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), func(context.Context, string) error { return nil }, nil, 0)
	if err == nil {
		t.Error("New() should fail for a missing directory")
	}
}
