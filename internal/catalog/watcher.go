package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads the catalog when files under the suites directory or the ad config change.
type Watcher struct {
	catalog  *Catalog
	debounce time.Duration
	logger   *slog.Logger
	reloadFn func() (*Snapshot, error)

	mu       sync.Mutex
	timer    *time.Timer
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithWatchDebounce sets the quiet period before a reload runs.
func WithWatchDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger sets the watcher logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithReloadFunc replaces Catalog.Reload as the action run after a change.
func WithReloadFunc(fn func() (*Snapshot, error)) WatcherOption {
	return func(w *Watcher) {
		if fn != nil {
			w.reloadFn = fn
		}
	}
}

// NewWatcher builds a watcher for c. Call Start to begin watching.
func NewWatcher(c *Catalog, opts ...WatcherOption) (*Watcher, error) {
	if c == nil || c.SuitesDir() == "" {
		return nil, fmt.Errorf("catalog with a suites directory required")
	}
	w := &Watcher{
		catalog:  c,
		debounce: defaultWatchDebounce,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
	}
	w.reloadFn = c.Reload
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds the suites directory, each suite subdirectory and the ad config directory
// to an fsnotify watcher. It returns once watching has begun.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return nil
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fsWatcher
	w.mu.Unlock()

	for _, dir := range w.watchDirs() {
		if err := fsWatcher.Add(dir); err != nil {
			w.logger.Warn("Catalog watch skipped directory", "dir", dir, "error", err)
		}
	}

	go w.loop(fsWatcher)
	go func() {
		select {
		case <-ctx.Done():
			w.Stop()
		case <-w.stopCh:
		}
	}()
	return nil
}

// Stop ends watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		if w.watcher != nil {
			_ = w.watcher.Close()
			w.watcher = nil
		}
	})
}

func (w *Watcher) watchDirs() []string {
	root := w.catalog.SuitesDir()
	dirs := []string{root}
	if entries, err := os.ReadDir(root); err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, filepath.Join(root, entry.Name()))
			}
		}
	}
	if path := w.catalog.AdConfigPath(); path != "" {
		dirs = append(dirs, filepath.Dir(path))
	}
	return dirs
}

func (w *Watcher) loop(fsWatcher *fsnotify.Watcher) {
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fsWatcher.Add(event.Name)
				}
			}
			w.schedule()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Catalog watch error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if path := w.catalog.AdConfigPath(); path != "" && filepath.Clean(event.Name) == filepath.Clean(path) {
		return true
	}
	rel, err := filepath.Rel(w.catalog.SuitesDir(), event.Name)
	return err == nil && rel != ".." && !filepath.IsAbs(rel) && (len(rel) < 3 || rel[:3] != "../")
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.stopCh:
		return
	default:
	}
	snap, err := w.reloadFn()
	if err != nil {
		w.logger.Error("Catalog reload failed, keeping previous snapshot", "error", err)
		return
	}
	w.logger.Info("Catalog reloaded from watch", "version", snap.Version)
}
