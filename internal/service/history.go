package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/echoverse/echoverse-server/internal/domain"
	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
	"github.com/echoverse/echoverse-server/internal/events"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/search"
	"github.com/echoverse/echoverse-server/internal/store"
)

// HistoryService lists, searches, and deletes a user's narration history.
type HistoryService struct {
	store   store.Store
	storage *media.Storage
	records *recorder
	logger  *slog.Logger
}

// NewHistoryService creates a history service.
func NewHistoryService(
	store store.Store,
	storage *media.Storage,
	index HistoryIndex,
	publisher events.Publisher,
	logger *slog.Logger,
) *HistoryService {
	return &HistoryService{
		store:   store,
		storage: storage,
		records: newRecorder(store, index, publisher, logger),
		logger:  logger,
	}
}

// SearchHit is a matching history record with its score and highlights.
type SearchHit struct {
	History    *domain.History   `json:"history"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// SearchResponse holds history search results.
type SearchResponse struct {
	Query   string      `json:"query"`
	Total   uint64      `json:"total"`
	TookMs  int64       `json:"took_ms"`
	Results []SearchHit `json:"results"`
}

// List returns the user's history, newest first.
func (s *HistoryService) List(ctx context.Context, userID string, limit int) ([]*domain.History, error) {
	items, err := s.store.ListHistory(ctx, userID, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return items, nil
}

// Get returns one history record owned by the user.
func (s *HistoryService) Get(ctx context.Context, userID, historyID string) (*domain.History, error) {
	return ownedHistory(ctx, s.store, userID, historyID)
}

// Delete removes a history record with its downloads and audio files.
func (s *HistoryService) Delete(ctx context.Context, userID, historyID string) error {
	h, err := ownedHistory(ctx, s.store, userID, historyID)
	if err != nil {
		return err
	}

	downloads, err := s.store.ListDownloadsByHistory(ctx, historyID)
	if err != nil {
		return fmt.Errorf("list downloads: %w", err)
	}

	files := make(map[string]struct{}, len(downloads)+1)
	if h.AudioFile != "" {
		files[h.AudioFile] = struct{}{}
	}
	for _, d := range downloads {
		files[d.Filename] = struct{}{}
	}

	// Downloads cascade with the history row.
	if err := s.store.DeleteHistory(ctx, historyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("history record not found")
		}
		return fmt.Errorf("delete history: %w", err)
	}

	for name := range files {
		if err := s.storage.Delete(name); err != nil {
			s.logger.Warn("failed to delete audio file", "file", name, "history_id", historyID, "error", err)
		}
	}

	s.records.unindexHistory(historyID)
	s.records.publish(events.TypeHistoryDeleted, events.NarrationEvent{UserID: userID, HistoryID: historyID})
	s.logger.Info("History deleted", "history_id", historyID, "user_id", userID, "files", len(files))
	return nil
}

// Search runs a full-text query over the user's history.
func (s *HistoryService) Search(ctx context.Context, userID, query, tone string, limit int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.Validation("search query is required")
	}
	if tone != "" {
		t, ok := narration.ParseTone(tone)
		if !ok {
			return nil, domainerrors.Validationf("unknown tone %q", tone)
		}
		tone = string(t)
	}

	res, err := s.records.index.Search(ctx, search.Params{
		UserID: userID,
		Query:  query,
		Tone:   tone,
		Limit:  store.ClampLimit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}

	out := &SearchResponse{
		Query:   res.Query,
		Total:   res.Total,
		TookMs:  res.TookMs,
		Results: make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h, err := s.store.GetHistory(ctx, hit.ID)
		if err != nil {
			// The index may lag a delete; drop the stale hit.
			if errors.Is(err, store.ErrNotFound) {
				s.records.unindexHistory(hit.ID)
				continue
			}
			return nil, fmt.Errorf("load history %s: %w", hit.ID, err)
		}
		if h.UserID != userID {
			continue
		}
		out.Results = append(out.Results, SearchHit{History: h, Score: hit.Score, Highlights: hit.Highlights})
	}
	return out, nil
}

// Reindex rebuilds the search index from the store.
func (s *HistoryService) Reindex(ctx context.Context) (int, error) {
	all, err := s.store.ListAllHistory(ctx)
	if err != nil {
		return 0, fmt.Errorf("list history: %w", err)
	}
	docs := make([]*search.Document, len(all))
	for i, h := range all {
		docs[i] = search.DocumentFromHistory(h)
	}
	if err := s.records.index.IndexBatch(docs); err != nil {
		return 0, fmt.Errorf("index history: %w", err)
	}
	s.logger.Info("Rebuilt history search index", "documents", len(docs))
	return len(docs), nil
}
