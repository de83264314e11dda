package services

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/bssshyamsundhar/float-chat/internal/pkg/logger"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingCache memoizes text->vector lookups keyed by the exact
// input string. No expiry and no size bound: the distinct-question
// corpus is assumed small, so entries accumulate for the process
// lifetime. Concurrent misses for the same text are collapsed so the
// backend is invoked once per distinct string.
type EmbeddingCache struct {
	log     *logger.Logger
	backend Embedder

	mu      sync.RWMutex
	entries map[string][]float32
	group   singleflight.Group
}

// NewEmbeddingCache wraps backend with memoization. A nil backend is
// allowed and means the embedding model never loaded; Embed then
// always returns nil.
func NewEmbeddingCache(log *logger.Logger, backend Embedder) *EmbeddingCache {
	return &EmbeddingCache{
		log:     log.With("service", "EmbeddingCache"),
		backend: backend,
		entries: make(map[string][]float32),
	}
}

// Embed returns the cached vector for text, invoking the backend on a
// miss. Returns nil when no backend is configured or the backend
// fails; the caller treats nil as "embedding unavailable".
func (c *EmbeddingCache) Embed(ctx context.Context, text string) []float32 {
	if c.backend == nil {
		return nil
	}

	c.mu.RLock()
	vec, ok := c.entries[text]
	c.mu.RUnlock()
	if ok {
		return vec
	}

	v, err, _ := c.group.Do(text, func() (any, error) {
		got, err := c.backend.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[text] = got
		c.mu.Unlock()
		return got, nil
	})
	if err != nil {
		c.log.Warn("Embedding backend failed", "error", err)
		return nil
	}
	return v.([]float32)
}

// Len reports the number of cached entries. Used by the health surface
// to expose unbounded-growth in plain sight.
func (c *EmbeddingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every cached vector. Administrative use only.
func (c *EmbeddingCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]float32)
}
