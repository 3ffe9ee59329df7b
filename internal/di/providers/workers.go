package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/logger"
	"github.com/echoverse/echoverse-server/internal/rewrite"
	"github.com/echoverse/echoverse-server/internal/service"
)

// sessionCleanupInterval is how often expired sessions are purged.
const sessionCleanupInterval = time.Hour

// SessionCleanupJob purges expired sessions in the background.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob starts the session cleanup loop.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	sessionService := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	// Purge sessions that expired while the server was down.
	if _, err := sessionService.DeleteExpiredSessions(ctx); err != nil {
		log.Warn("Initial session cleanup failed", "error", err)
	}
	go sessionService.RunCleanup(ctx, sessionCleanupInterval)

	log.Info("Session cleanup job started", "interval", sessionCleanupInterval)
	return &SessionCleanupJob{cancel: cancel}, nil
}

// PromptWatcherHandle wraps the prompt file watcher. Watcher is nil when no
// prompt file is configured.
type PromptWatcherHandle struct {
	*rewrite.PromptWatcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *PromptWatcherHandle) Shutdown() error {
	if h.PromptWatcher == nil {
		return nil
	}
	h.cancel()
	return h.Stop()
}

// ProvidePromptWatcher hot reloads the rewrite prompt file.
func ProvidePromptWatcher(i do.Injector) (*PromptWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	rewriteHandle := do.MustInvoke[*RewriteHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Rewrite.PromptsPath == "" {
		return &PromptWatcherHandle{}, nil
	}

	w, err := rewrite.NewPromptWatcher(cfg.Rewrite.PromptsPath, rewriteHandle.Prompts, log.Component("prompts"))
	if err != nil {
		// Non-fatal: prompts stay as loaded at startup.
		log.Warn("Prompt hot reload unavailable", "path", cfg.Rewrite.PromptsPath, "error", err)
		return &PromptWatcherHandle{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := w.Start(ctx); err != nil {
			log.Error("Prompt watcher stopped", "error", err)
		}
	}()

	log.Info("Watching rewrite prompts", "path", cfg.Rewrite.PromptsPath)
	return &PromptWatcherHandle{PromptWatcher: w, cancel: cancel}, nil
}

// TriggerSearchReindexIfNeeded rebuilds the history index in the background
// when it was created fresh or rebuilt on open.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	historyService := do.MustInvoke[*service.HistoryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !indexHandle.NeedsReindex {
		return
	}

	log.Info("Search index is empty, rebuilding from history")
	go func() {
		count, err := historyService.Reindex(context.Background())
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		log.Info("Search reindex completed", "documents", count)
	}()
}
