package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/events"
	"github.com/echoverse/echoverse-server/internal/id"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/rewrite"
	"github.com/echoverse/echoverse-server/internal/search"
	"github.com/echoverse/echoverse-server/internal/store"
)

// AudioURLPrefix is the public path stored audio files are served under.
const AudioURLPrefix = "/download-audio/"

// Rewriter adapts text to a tone. Provider failures yield the original text.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, tone narration.Tone) (rewrite.Result, error)
}

// Assembler synthesizes and merges a segment list.
type Assembler interface {
	Assemble(ctx context.Context, segments []narration.Segment) (*narration.Result, error)
}

// HistoryIndex is the full-text index over history records.
type HistoryIndex interface {
	Index(doc *search.Document) error
	IndexBatch(docs []*search.Document) error
	Delete(id string) error
	Search(ctx context.Context, params search.Params) (*search.Result, error)
}

// AudioURL returns the public URL of a stored audio file.
func AudioURL(filename string) string {
	return AudioURLPrefix + filename
}

// recorder persists history and download records and keeps the index and
// event stream in step. Index and publish failures are logged, not returned.
type recorder struct {
	store  store.Store
	index  HistoryIndex
	events events.Publisher
	logger *slog.Logger
}

func newRecorder(s store.Store, index HistoryIndex, publisher events.Publisher, logger *slog.Logger) *recorder {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &recorder{store: s, index: index, events: publisher, logger: logger}
}

func (r *recorder) createHistory(ctx context.Context, h *domain.History) error {
	historyID, err := id.Generate(id.PrefixHistory)
	if err != nil {
		return fmt.Errorf("generate history ID: %w", err)
	}
	now := time.Now()
	h.ID = historyID
	h.CreatedAt = now
	h.UpdatedAt = now

	if err := r.store.CreateHistory(ctx, h); err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	r.indexHistory(h)
	return nil
}

func (r *recorder) updateHistory(ctx context.Context, h *domain.History) error {
	h.UpdatedAt = time.Now()
	if err := r.store.UpdateHistory(ctx, h); err != nil {
		return fmt.Errorf("update history: %w", err)
	}
	r.indexHistory(h)
	return nil
}

// failHistory marks h failed. It runs on a fresh context so a cancelled request
// still records the failure.
func (r *recorder) failHistory(h *domain.History, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.Fail(reason)
	if err := r.updateHistory(ctx, h); err != nil {
		r.logger.Error("failed to mark history failed", "history_id", h.ID, "error", err)
	}
}

func (r *recorder) createDownload(ctx context.Context, d *domain.Download) error {
	downloadID, err := id.Generate(id.PrefixDownload)
	if err != nil {
		return fmt.Errorf("generate download ID: %w", err)
	}
	d.ID = downloadID
	d.CreatedAt = time.Now()

	if err := r.store.CreateDownload(ctx, d); err != nil {
		return fmt.Errorf("create download: %w", err)
	}
	return nil
}

func (r *recorder) indexHistory(h *domain.History) {
	if r.index == nil {
		return
	}
	if err := r.index.Index(search.DocumentFromHistory(h)); err != nil {
		r.logger.Warn("failed to index history", "history_id", h.ID, "error", err)
	}
}

func (r *recorder) unindexHistory(historyID string) {
	if r.index == nil {
		return
	}
	if err := r.index.Delete(historyID); err != nil {
		r.logger.Warn("failed to remove history from index", "history_id", historyID, "error", err)
	}
}

func (r *recorder) publish(eventType string, event events.NarrationEvent) {
	r.events.Publish(eventType, event)
}
