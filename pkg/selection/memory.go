package selection

import (
	"context"
	"sync"

	"github.com/Sternrassler/artsel/pkg/artwork"
)

// MemoryStore is a process-local Store. The zero value is not usable; call
// NewMemoryStore.
type MemoryStore struct {
	mu  sync.RWMutex
	ids Set
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(Set)}
}

func (m *MemoryStore) Has(_ context.Context, id artwork.ID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ids.Has(id), nil
}

func (m *MemoryStore) HasMany(_ context.Context, ids []artwork.ID) ([]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = m.ids.Has(id)
	}
	return out, nil
}

func (m *MemoryStore) Add(ctx context.Context, id artwork.ID) error {
	return m.AddMany(ctx, []artwork.ID{id})
}

func (m *MemoryStore) AddMany(_ context.Context, ids []artwork.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
	for _, id := range ids {
		if !m.ids.Has(id) {
			m.ids[id] = struct{}{}
			added++
		}
	}
	recordMutation("memory", "add", added)
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, id artwork.ID) error {
	return m.RemoveMany(ctx, []artwork.ID{id})
}

func (m *MemoryStore) RemoveMany(_ context.Context, ids []artwork.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for _, id := range ids {
		if m.ids.Has(id) {
			delete(m.ids, id)
			removed++
		}
	}
	recordMutation("memory", "remove", removed)
	return nil
}

func (m *MemoryStore) All(_ context.Context) (Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ids.Clone(), nil
}

func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids), nil
}
