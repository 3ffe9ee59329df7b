// Package search provides full-text search over narration history using Bleve.
package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// mappingVersion is bumped whenever the mapping changes; a mismatch triggers a rebuild.
const mappingVersion = "1"

// HistoryIndex wraps a Bleve index of history documents.
// All methods are safe for concurrent use.
type HistoryIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	DataPath string // Directory for index storage; empty opens an in-memory index
	Logger   *slog.Logger
}

// Open creates or opens the history index. A corrupt index or one built with an
// older mapping is removed and recreated; NeedsReindex reports that case.
func Open(opts Options) (*HistoryIndex, bool, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, false, fmt.Errorf("create memory index: %w", err)
		}
		return &HistoryIndex{index: index, logger: logger}, false, nil
	}

	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, false, fmt.Errorf("create index dir: %w", err)
	}
	indexPath := filepath.Join(opts.DataPath, "history.bleve")
	versionPath := filepath.Join(opts.DataPath, "history.version")

	var index bleve.Index
	rebuilt := false

	if _, statErr := os.Stat(indexPath); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil || string(existing) != mappingVersion:
			logger.Info("search index mapping changed, rebuilding", "new_version", mappingVersion)
		default:
			var err error
			if index, err = bleve.Open(indexPath); err != nil {
				logger.Warn("failed to open search index, recreating", "path", indexPath, "error", err)
				index = nil
			}
		}
		if index == nil {
			if err := os.RemoveAll(indexPath); err != nil {
				return nil, false, fmt.Errorf("remove old index: %w", err)
			}
			rebuilt = true
		}
	} else {
		rebuilt = true
	}

	if index == nil {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, false, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created search index", "path", indexPath, "mapping_version", mappingVersion)
	}

	return &HistoryIndex{index: index, path: indexPath, logger: logger}, rebuilt, nil
}

// Close closes the index.
func (s *HistoryIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Index adds or replaces a document.
func (s *HistoryIndex) Index(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.toMap())
}

// IndexBatch indexes documents in chunks.
func (s *HistoryIndex) IndexBatch(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// Delete removes a document.
func (s *HistoryIndex) Delete(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// Count returns the number of indexed documents.
func (s *HistoryIndex) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
