package plugin

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360/nodeflow/errors"
)

// Extension is the file extension of loadable plugins.
const Extension = ".so"

// LoadFunc is called with the path of a plugin that appeared or changed.
type LoadFunc func(path string)

// Watcher calls a LoadFunc when a plugin file is created or written in a
// directory. Events for the same path are coalesced over the debounce window
// so a file being copied in is loaded once.
type Watcher struct {
	dir      string
	onLoad   LoadFunc
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a changed file is loaded.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, onLoad LoadFunc, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		onLoad:   onLoad,
		debounce: 200 * time.Millisecond,
		logger:   slog.Default(),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapFatal(err, "Watcher", "Run", "create fsnotify watcher")
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return errors.WrapFatal(err, "Watcher", "Run", "watch plugin directory")
	}
	w.logger.Info("watching plugin directory", "dir", w.dir)

	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if filepath.Ext(event.Name) != Extension {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("plugin watcher error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		w.logger.Debug("plugin file changed", "path", path)
		w.onLoad(path)
	})
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}
