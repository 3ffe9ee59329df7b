package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultSettleDelay coalesces the burst of events editors emit on save.
const defaultSettleDelay = 200 * time.Millisecond

// PromptWatcher reloads a prompt file when it changes on disk.
type PromptWatcher struct {
	path    string
	prompts *Prompts
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	settle time.Duration
	mu     sync.Mutex
	timer  *time.Timer

	// reloaded is signalled after each reload attempt; used by tests.
	reloaded chan error
}

// NewPromptWatcher watches the directory holding path. The directory is watched
// rather than the file so atomic rename-on-save is seen.
func NewPromptWatcher(path string, prompts *Prompts, logger *slog.Logger) (*PromptWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &PromptWatcher{
		path:     path,
		prompts:  prompts,
		logger:   logger,
		watcher:  w,
		settle:   defaultSettleDelay,
		reloaded: make(chan error, 1),
	}, nil
}

// Start processes events until ctx is cancelled or Stop is called.
func (w *PromptWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("prompt watcher error", "error", err)
		}
	}
}

// Stop releases the underlying watcher.
func (w *PromptWatcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *PromptWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.settle, w.reload)
}

func (w *PromptWatcher) reload() {
	err := w.prompts.Reload(w.path)
	if err != nil {
		// Keep serving the previous prompts.
		w.logger.Warn("failed to reload prompts", "path", w.path, "error", err)
	} else {
		w.logger.Info("reloaded rewrite prompts", "path", w.path)
	}

	select {
	case w.reloaded <- err:
	default:
	}
}
