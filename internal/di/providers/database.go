package providers

import (
	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/logger"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/search"
	"github.com/echoverse/echoverse-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Component("store"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// SearchIndexHandle wraps the history index with shutdown capability.
type SearchIndexHandle struct {
	*search.HistoryIndex
	// NeedsReindex is set when the index was created or rebuilt on open.
	NeedsReindex bool
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve history index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, rebuilt, err := search.Open(search.Options{
		DataPath: cfg.SearchIndexPath(),
		Logger:   log.Component("search"),
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.Count()
	log.Info("Search index initialized", "documents", docCount, "rebuilt", rebuilt)

	return &SearchIndexHandle{HistoryIndex: index, NeedsReindex: rebuilt}, nil
}

// ProvideAudioStorage provides the generated audio directory.
func ProvideAudioStorage(i do.Injector) (*media.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := media.NewStorage(cfg.Narration.AudioPath)
	if err != nil {
		return nil, err
	}

	log.Info("Audio storage ready", "path", cfg.Narration.AudioPath)
	return storage, nil
}
