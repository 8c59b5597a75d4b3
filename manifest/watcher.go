package manifest

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GoCodeAlone/appshell"
)

// defaultDebounce batches the event bursts editors produce for one save.
const defaultDebounce = 100 * time.Millisecond

// Watcher observes a manifest file and re-applies it through an Applier
// whenever it changes. The parent directory is watched rather than the
// file itself so rename-and-replace saves keep working.
type Watcher struct {
	path     string
	applier  *Applier
	logger   appshell.Logger
	debounce time.Duration

	mu      sync.Mutex
	started bool
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger used for reload reporting.
func WithWatcherLogger(logger appshell.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long the watcher waits after the last file event
// before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for the manifest file at path.
func NewWatcher(path string, applier *Applier, opts ...WatcherOption) (*Watcher, error) {
	if applier == nil {
		return nil, ErrApplierNil
	}
	w := &Watcher{
		path:     filepath.Clean(path),
		applier:  applier,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start loads and applies the manifest once, then watches it for changes
// until Stop is called or ctx is cancelled. The initial load must
// succeed; later load failures are logged and the last good manifest
// stays applied.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrWatcherStarted
	}

	m, err := Load(w.path)
	if err != nil {
		return err
	}
	result, err := w.applier.Apply(m)
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("initial manifest apply: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch manifest directory: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.watch(loopCtx)

	if w.logger != nil {
		w.logger.Info("Manifest watcher started", "path", w.path)
	}
	return nil
}

// Stop stops watching. It waits for the watch loop to exit or for ctx to
// expire.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return ErrWatcherNotStarted
	}

	w.cancel()
	w.fsw.Close()

	select {
	case <-w.done:
	case <-ctx.Done():
		return fmt.Errorf("manifest watcher shutdown: %w", ctx.Err())
	}

	w.started = false
	if w.logger != nil {
		w.logger.Info("Manifest watcher stopped", "path", w.path)
	}
	return nil
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.done)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Restart the debounce window; the timer channel is only
			// consumed by this loop, so Reset after Stop is safe.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Error("Manifest watcher error", "path", w.path, "error", err)
			}
		}
	}
}

// reload re-reads the manifest and applies it, keeping the previous
// manifest when the file fails to parse or validate.
func (w *Watcher) reload() {
	m, err := Load(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.Error("Manifest reload failed, keeping previous manifest", "path", w.path, "error", err)
		}
		return
	}
	if _, err := w.applier.Apply(m); err != nil {
		if w.logger != nil {
			w.logger.Error("Manifest apply failed", "path", w.path, "error", err)
		}
	}
}
