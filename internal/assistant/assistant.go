// Package assistant resolves assistant names to service identifiers and
// remembers which assistant each thread was started with.
package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/namikmesic/graphstream/internal/client"
	"github.com/rs/zerolog/log"
)

// Cache maps assistant names to identifiers. It is owned by the caller and
// safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	ids map[string]string
}

func NewCache() *Cache {
	return &Cache{ids: make(map[string]string)}
}

func (c *Cache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

func (c *Cache) Put(name, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[name] = id
}

// Searcher is the part of the service client the resolver needs.
type Searcher interface {
	SearchAssistants(ctx context.Context, graphID string) ([]client.Assistant, error)
}

type Resolver struct {
	search Searcher
	cache  *Cache
}

func NewResolver(search Searcher, cache *Cache) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{search: search, cache: cache}
}

// Resolve returns the identifier of the assistant whose graph id or name is
// name. ok is false when the service knows no such assistant.
func (r *Resolver) Resolve(ctx context.Context, name string) (id string, ok bool, err error) {
	if id, ok := r.cache.Get(name); ok {
		return id, true, nil
	}

	assistants, err := r.search.SearchAssistants(ctx, "")
	if err != nil {
		return "", false, fmt.Errorf("resolve assistant %q: %w", name, err)
	}

	for _, a := range assistants {
		if a.GraphID == name || a.Name == name || a.AssistantID == name {
			r.cache.Put(name, a.AssistantID)
			log.Debug().Str("assistant", name).Str("assistant_id", a.AssistantID).Msg("assistant resolved")
			return a.AssistantID, true, nil
		}
	}
	return "", false, nil
}
