// Package watch transcribes media files as they appear in a directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/zimu/internal/logging"
	"github.com/mgpai22/zimu/internal/media"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

type settled struct {
	path string
	gen  int
}

type pendingFile struct {
	timer *time.Timer
	gen   int
}

// Watcher queues media files once they have stopped changing for the settle
// interval and hands them to the handler one at a time.
type Watcher struct {
	dir     string
	handler Handler
	logger  *logging.Logger
	settle  time.Duration
	accept  func(path string) bool

	fs      *fsnotify.Watcher
	pending map[string]*pendingFile
	ready   chan settled
	closed  chan struct{}
}

// New starts watching dir. Call Run to process events.
func New(dir string, handler Handler, logger *logging.Logger, settle time.Duration) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if settle <= 0 {
		settle = 2 * time.Second
	}

	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logger,
		settle:  settle,
		accept:  media.IsMediaFile,
		fs:      fs,
		pending: make(map[string]*pendingFile),
		ready:   make(chan settled),
		closed:  make(chan struct{}),
	}, nil
}

// Run blocks until ctx is done or the watcher fails. The file being handled
// when ctx is cancelled is allowed to finish; queued files are dropped.
func (w *Watcher) Run(ctx context.Context) error {
	jobs := make(chan string, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for path := range jobs {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Infow("Processing", "file", path)
			if err := w.handler(ctx, path); err != nil {
				w.logger.Errorw("Failed to process file", "file", path, "error", err)
			}
		}
	}()

	defer func() {
		for _, p := range w.pending {
			p.timer.Stop()
		}
		close(w.closed)
		w.fs.Close()
		close(jobs)
		<-done
	}()

	w.logger.Infow("Watching for media files", "dir", w.dir, "settle", w.settle)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.observe(event)

		case s := <-w.ready:
			p, ok := w.pending[s.path]
			if !ok || p.gen != s.gen {
				continue
			}
			delete(w.pending, s.path)
			select {
			case jobs <- s.path:
				w.logger.Debugw("Queued", "file", s.path)
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Warnw("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) observe(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			w.forget(event.Name)
		}
		return
	}
	if !w.accept(event.Name) {
		w.logger.Debugw("Ignoring non-media file", "file", event.Name)
		return
	}

	p, ok := w.pending[event.Name]
	if ok {
		p.timer.Stop()
	} else {
		p = &pendingFile{}
		w.pending[event.Name] = p
	}
	p.gen++
	ready := settled{path: event.Name, gen: p.gen}
	p.timer = time.AfterFunc(w.settle, func() {
		select {
		case w.ready <- ready:
		case <-w.closed:
		}
	})
}

func (w *Watcher) forget(path string) {
	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}
