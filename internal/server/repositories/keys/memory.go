package keys

import (
	"bytes"
	"context"
	"maps"
	"sync"
)

// MemoryRepository keeps entries for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string][]byte)}
}

func (r *MemoryRepository) Save(_ context.Context, id string, sealed []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = bytes.Clone(sealed)
	return nil
}

func (r *MemoryRepository) SaveAll(_ context.Context, entries map[string][]byte) error {
	next := make(map[string][]byte, len(entries))
	for id, sealed := range entries {
		next[id] = bytes.Clone(sealed)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = next
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

func (r *MemoryRepository) List(context.Context) (map[string][]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := maps.Clone(r.entries)
	if out == nil {
		out = map[string][]byte{}
	}
	for id, sealed := range out {
		out[id] = bytes.Clone(sealed)
	}
	return out, nil
}
