package assistant

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Store persists thread to assistant associations.
type Store interface {
	LoadThreadAssistant(ctx context.Context, threadID string) (string, bool, error)
	SaveThreadAssistant(ctx context.Context, threadID, assistantID string) error
}

// Associations remembers the assistant each thread runs against. Lookups
// fall back to the store, when there is one, and results are kept in memory.
type Associations struct {
	mu      sync.RWMutex
	threads map[string]string
	store   Store
}

func NewAssociations(store Store) *Associations {
	return &Associations{threads: make(map[string]string), store: store}
}

func (a *Associations) Lookup(ctx context.Context, threadID string) (string, bool) {
	a.mu.RLock()
	id, ok := a.threads[threadID]
	a.mu.RUnlock()
	if ok || a.store == nil {
		return id, ok
	}

	id, ok, err := a.store.LoadThreadAssistant(ctx, threadID)
	if err != nil {
		log.Warn().Err(err).Str("thread_id", threadID).Msg("thread association lookup failed")
		return "", false
	}
	if ok {
		a.mu.Lock()
		a.threads[threadID] = id
		a.mu.Unlock()
	}
	return id, ok
}

func (a *Associations) Remember(ctx context.Context, threadID, assistantID string) {
	a.mu.Lock()
	a.threads[threadID] = assistantID
	a.mu.Unlock()

	if a.store == nil {
		return
	}
	if err := a.store.SaveThreadAssistant(ctx, threadID, assistantID); err != nil {
		log.Warn().Err(err).Str("thread_id", threadID).Msg("failed to persist thread association")
	}
}
