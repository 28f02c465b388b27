// Package watcher watches dataset folders with fsnotify and reports debounced bursts of changes.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ErrNoRoots is returned by Start when none of the roots exist.
var ErrNoRoots = errors.New("no watchable directories")

// Watcher watches directories and calls onChange once per burst of matching file events.
type Watcher struct {
	roots     []string
	match     func(path string) bool
	recursive bool
	onChange  func(paths []string)
	debounce  time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	pending  map[string]struct{}
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for watch events.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period that ends a burst. Zero or less keeps the default.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher over roots. match filters file paths (nil accepts all).
// onChange receives the sorted set of paths that changed during a burst.
func NewWatcher(roots []string, match func(path string) bool, recursive bool, onChange func(paths []string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		roots:     roots,
		match:     match,
		recursive: recursive,
		onChange:  onChange,
		debounce:  defaultDebounce,
		pending:   make(map[string]struct{}),
		done:      make(chan struct{}),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing roots are logged and skipped; if none exist Start
// returns ErrNoRoots. The watcher runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	watched := 0
	for _, root := range w.roots {
		if err := w.addTreeLocked(root); err != nil {
			w.logger.Warn("cannot watch folder, skipping", zap.String("folder", root), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		_ = fw.Close()
		w.watcher = nil
		w.mu.Unlock()
		return ErrNoRoots
	}
	w.started = true
	w.mu.Unlock()
	w.logger.Debug("watcher started", zap.Strings("roots", w.roots), zap.Bool("recursive", w.recursive))
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if ev.Op.Has(fsnotify.Chmod) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.recursive {
				w.mu.Lock()
				if w.watcher != nil {
					if err := w.addTreeLocked(path); err != nil {
						w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
					}
				}
				w.mu.Unlock()
				// Files may have been moved in along with the directory.
				w.schedule(path)
			}
			return
		}
	}
	if w.match != nil && !w.match(path) {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	w.schedule(path)
}

// schedule records path and restarts the debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.started || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	w.timer = nil
	w.mu.Unlock()

	slices.Sort(paths)
	w.logger.Debug("watcher change burst", zap.Int("paths", len(paths)))
	if w.onChange != nil {
		w.onChange(paths)
	}
}

func (w *Watcher) addTreeLocked(root string) error {
	root = filepath.Clean(root)
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Stop stops the watcher and drops pending changes.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	clear(w.pending)
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
