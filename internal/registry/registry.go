// Package registry provides the concurrency-safe keyed stores that own
// session and lobby lifetimes. The registry lock only covers the id-to-
// instance mapping; per-instance locking stays inside the instances.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Entry is anything the registry can evict on inactivity.
type Entry interface {
	LastActivity() time.Time
}

// Registry maps opaque random identifiers to owned instances. It is the
// sole owner of an instance's lifetime; CleanupInactive is the only
// reclamation mechanism.
type Registry[T Entry] struct {
	mu    sync.Mutex
	clock clockwork.Clock
	items map[string]T
}

// New creates an empty registry.
func New[T Entry](clock clockwork.Clock) *Registry[T] {
	return &Registry[T]{
		clock: clock,
		items: make(map[string]T),
	}
}

// Create stores the instance under a fresh cryptographically-random
// identifier and returns it.
func (r *Registry[T]) Create(item T) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = item
	return id
}

// CreateWithID stores the instance under an explicit identifier, failing on
// collision.
func (r *Registry[T]) CreateWithID(id string, item T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[id]; exists {
		return fmt.Errorf("identifier %q already in use", id)
	}
	r.items[id] = item
	return nil
}

// Get returns the instance for id, if present.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	return item, ok
}

// Delete removes the instance, idempotently.
func (r *Registry[T]) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// Len reports the number of live instances.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// All returns a point-in-time copy of the live instances.
func (r *Registry[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out
}

// CleanupInactive evicts entries idle for longer than ttl and returns how
// many were removed. LastActivity is read outside the registry lock so a
// held instance lock cannot deadlock against eviction.
func (r *Registry[T]) CleanupInactive(ttl time.Duration) int {
	r.mu.Lock()
	snapshot := make(map[string]T, len(r.items))
	for id, item := range r.items {
		snapshot[id] = item
	}
	r.mu.Unlock()

	cutoff := r.clock.Now().Add(-ttl)
	var stale []string
	for id, item := range snapshot {
		if item.LastActivity().Before(cutoff) {
			stale = append(stale, id)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for _, id := range stale {
		if _, ok := r.items[id]; ok {
			delete(r.items, id)
			removed++
		}
	}
	return removed
}
