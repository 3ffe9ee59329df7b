package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/echoverse/echoverse-server/internal/narration"
)

const clipKeyPrefix = "clip:"

// ClipCache stores synthesized clips in badger keyed by voice, tone and text.
type ClipCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenClipCache opens the cache at path. An empty path uses an in-memory database.
func OpenClipCache(path string, ttl time.Duration) (*ClipCache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clip cache: %w", err)
	}
	return &ClipCache{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (c *ClipCache) Close() error {
	return c.db.Close()
}

// Get returns a cached clip, or nil when absent.
func (c *ClipCache) Get(text string, voice narration.Voice, tone narration.Tone) ([]byte, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(clipKey(text, voice, tone))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}

// Put stores a clip.
func (c *ClipCache) Put(text string, voice narration.Voice, tone narration.Tone, audio []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(clipKey(text, voice, tone), audio)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

func clipKey(text string, voice narration.Voice, tone narration.Tone) []byte {
	sum := sha256.Sum256([]byte(string(voice) + "\x00" + string(tone) + "\x00" + text))
	return []byte(clipKeyPrefix + hex.EncodeToString(sum[:]))
}

// CachedSynthesizer serves repeated segments from the clip cache.
type CachedSynthesizer struct {
	next   narration.Synthesizer
	cache  *ClipCache
	logger *slog.Logger
}

// NewCachedSynthesizer wraps next with cache. A nil cache disables caching.
func NewCachedSynthesizer(next narration.Synthesizer, cache *ClipCache, logger *slog.Logger) *CachedSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSynthesizer{next: next, cache: cache, logger: logger}
}

// Synthesize implements narration.Synthesizer.
func (s *CachedSynthesizer) Synthesize(ctx context.Context, text string, voice narration.Voice, tone narration.Tone) (*narration.Clip, error) {
	if s.cache == nil {
		return s.next.Synthesize(ctx, text, voice, tone)
	}

	data, err := s.cache.Get(text, voice, tone)
	if err != nil {
		s.logger.Warn("clip cache read failed", "error", err)
	}
	if len(data) > 0 {
		return &narration.Clip{Audio: data, Provider: "cache"}, nil
	}

	clip, err := s.next.Synthesize(ctx, text, voice, tone)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(text, voice, tone, clip.Audio); err != nil {
		s.logger.Warn("clip cache write failed", "error", err)
	}
	return clip, nil
}
