package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a set of files and emits debounced batches of
// changes to them.
type FileWatcher struct {
	fsw       *fsnotify.Watcher
	poll      *poller
	debouncer *Debouncer
	logger    *slog.Logger
	opts      Options

	events chan []FileEvent
	errors chan error
	stopCh chan struct{}

	mu      sync.RWMutex
	targets map[string]bool
	dirs    map[string]bool
	stopped bool

	droppedBatches atomic.Uint64
}

// New creates a FileWatcher. fsnotify is used when available, polling
// otherwise.
func New(opts Options, logger *slog.Logger) (*FileWatcher, error) {
	opts = opts.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	w := &FileWatcher{
		debouncer: NewDebouncer(opts.DebounceWindow, logger),
		logger:    logger,
		opts:      opts,
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		targets:   make(map[string]bool),
		dirs:      make(map[string]bool),
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsw = fsw
			return w, nil
		}
		logger.Warn("fsnotify unavailable, falling back to polling",
			slog.String("error", err.Error()))
	}
	w.poll = newPoller(opts.PollInterval, w.Targets)
	return w, nil
}

// Mode returns "fsnotify" or "polling".
func (w *FileWatcher) Mode() string {
	if w.fsw != nil {
		return "fsnotify"
	}
	return "polling"
}

// SetTargets replaces the watched file set. Paths are made absolute.
// Parent directories that no longer hold a target are unwatched.
func (w *FileWatcher) SetTargets(paths []string) error {
	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve absolute path: %w", err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return fmt.Errorf("watcher stopped")
	}

	if w.fsw != nil {
		for dir := range w.dirs {
			if !dirs[dir] {
				_ = w.fsw.Remove(dir)
			}
		}
		for dir := range dirs {
			if w.dirs[dir] {
				continue
			}
			if err := w.fsw.Add(dir); err != nil {
				// A missing directory is not fatal: its files are reported
				// missing by the check itself.
				w.logger.Debug("cannot watch directory",
					slog.String("dir", dir),
					slog.String("error", err.Error()))
				delete(dirs, dir)
			}
		}
	}
	w.targets = targets
	w.dirs = dirs
	return nil
}

// Targets returns the watched files, sorted.
func (w *FileWatcher) Targets() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.targets))
	for p := range w.targets {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (w *FileWatcher) isTarget(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.targets[path]
}

// Run delivers events until ctx is cancelled or Stop is called. It returns
// nil on cancellation.
func (w *FileWatcher) Run(ctx context.Context) error {
	go w.forward(ctx)

	if w.poll != nil {
		w.poll.run(ctx, w.stopCh, w.debouncer.Add)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

// handle converts an fsnotify event for a target into a FileEvent.
func (w *FileWatcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.isTarget(path) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}
	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

// forward moves debounced batches to the events channel.
func (w *FileWatcher) forward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.emitEvents(batch)
		}
	}
}

func (w *FileWatcher) emitEvents(batch []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- batch:
	default:
		count := w.droppedBatches.Add(1)
		w.logger.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(batch)),
			slog.Uint64("total_dropped_batches", count))
	}
}

func (w *FileWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// DroppedBatches returns the number of batches dropped on a full buffer.
func (w *FileWatcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

// Events returns the channel of batched file events.
func (w *FileWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and closes its channels.
// Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	if w.fsw != nil {
		_ = w.fsw.Close()
	}
	close(w.events)
	close(w.errors)
	return nil
}
