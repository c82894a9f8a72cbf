// Package selection tracks which records a user has selected, independent of
// the page that is currently loaded.
//
// The Selection Set holds identifiers only, so its size grows with the number
// of ever-selected records and never with the size of the collection. Three
// backends implement Store:
//
//   - MemoryStore: process-local map (default)
//   - RedisStore: a redis SET, shared between processes and restarts
//   - BoltStore: a bbolt bucket in a single local file
//
// Reconcile maps a page-local selection report into a Store without touching
// other pages' selections, and Visible derives the selected subset of a page.
package selection

import (
	"context"
	"slices"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store holds the set of selected record identifiers.
// Add and Remove are idempotent. No operation depends on the loaded page.
type Store interface {
	Has(ctx context.Context, id artwork.ID) (bool, error)
	HasMany(ctx context.Context, ids []artwork.ID) ([]bool, error)
	Add(ctx context.Context, id artwork.ID) error
	AddMany(ctx context.Context, ids []artwork.ID) error
	Remove(ctx context.Context, id artwork.ID) error
	RemoveMany(ctx context.Context, ids []artwork.ID) error

	// All returns a snapshot that later mutations do not affect.
	All(ctx context.Context) (Set, error)
	Len(ctx context.Context) (int, error)
}

// Set is a set of record identifiers.
type Set map[artwork.ID]struct{}

// NewSet returns a set containing ids.
func NewSet(ids ...artwork.ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s Set) Has(id artwork.ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the ids in ascending order.
func (s Set) Sorted() []artwork.ID {
	ids := make([]artwork.ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

var mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "artsel_selection_mutations_total",
	Help: "Identifiers whose selection membership changed, by backend",
}, []string{"backend", "op"})

func recordMutation(backend, op string, n int) {
	if n > 0 {
		mutationsTotal.WithLabelValues(backend, op).Add(float64(n))
	}
}
