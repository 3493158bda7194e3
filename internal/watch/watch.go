package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches the event bursts editors and checkouts produce.
const DefaultDebounce = 250 * time.Millisecond

// Logger interface for debug logging
type Logger interface {
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// noopLogger is a default logger that does nothing
type noopLogger struct{}

func (n *noopLogger) Debug(format string, args ...interface{}) {}
func (n *noopLogger) Error(format string, args ...interface{}) {}

// Watcher watches a test tree recursively and fires a callback, debounced,
// whenever a file matching the pattern is created, written, renamed, or
// removed.
type Watcher struct {
	dir      string
	pattern  string
	debounce time.Duration
	onChange func()
	logger   Logger

	watcher *fsnotify.Watcher

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for dir. onChange runs on the watcher goroutine
// after the debounce window closes.
func New(dir, pattern string, debounce time.Duration, onChange func(), logger Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}
	if pattern == "" {
		pattern = "*.py"
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = &noopLogger{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		dir:      dir,
		pattern:  pattern,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		watcher:  fsw,
	}

	if err := w.addRecursive(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// addRecursive registers dir and every non-hidden subdirectory.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watch error: %v", err)
		}
	}
}

// handleEvent filters events and schedules the debounced callback.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories must be added to keep the watch recursive
	if event.Op&fsnotify.Create != 0 {
		if err := w.addRecursive(event.Name); err != nil {
			// The created path may be a plain file; only log real failures
			w.logger.Debug("Not watching %s: %v", event.Name, err)
		}
	}

	matched, err := filepath.Match(w.pattern, filepath.Base(event.Name))
	if err != nil || !matched {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug("Test tree changed: %s (%s)", event.Name, event.Op)
	w.scheduleCallback()
}

// scheduleCallback resets the debounce timer.
func (w *Watcher) scheduleCallback() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

// close stops the underlying watcher and any pending callback.
func (w *Watcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	_ = w.watcher.Close()
}
