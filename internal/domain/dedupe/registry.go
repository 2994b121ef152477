// Package dedupe tracks which items were already reported so later runs skip them.
package dedupe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultRetention is how long a seen id is remembered.
const DefaultRetention = 30 * 24 * time.Hour

// ErrNoStore is returned by Save on a registry without a backing store.
var ErrNoStore = errors.New("registry has no store")

// Store persists the id -> last-seen mapping as a whole.
type Store interface {
	Load(ctx context.Context) (map[string]time.Time, error)
	Save(ctx context.Context, seen map[string]time.Time) error
}

// Registry is the in-memory seen-item set. It is read once per run, mutated in
// memory and written back once; overlapping runs are last-writer-wins.
type Registry struct {
	mu        sync.RWMutex
	seen      map[string]time.Time
	retention time.Duration
	store     Store
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		seen:      make(map[string]time.Time),
		retention: DefaultRetention,
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Load reads the registry from store and drops entries older than the retention window.
func Load(ctx context.Context, store Store, now time.Time, opts ...Option) (*Registry, int, error) {
	r := New(append([]Option{WithStore(store)}, opts...)...)

	seen, err := store.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load registry: %w", err)
	}
	for id, ts := range seen {
		r.seen[id] = ts
	}
	pruned := r.Prune(now)
	return r, pruned, nil
}

// IsNew reports whether id has not been seen. It never mutates the registry.
func (r *Registry) IsNew(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.seen[id]
	return !ok
}

// MarkSeen records id as seen at now.
func (r *Registry) MarkSeen(id string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[id] = now
}

// Prune removes entries whose age exceeds the retention window and returns how many were removed.
// An entry exactly at the window is kept.
func (r *Registry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, ts := range r.seen {
		if now.Sub(ts) > r.retention {
			delete(r.seen, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of remembered ids.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.seen)
}

// Snapshot returns a copy of the mapping.
func (r *Registry) Snapshot() map[string]time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]time.Time, len(r.seen))
	for id, ts := range r.seen {
		out[id] = ts
	}
	return out
}

// Save writes the whole mapping to the backing store.
func (r *Registry) Save(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	if err := r.store.Save(ctx, r.Snapshot()); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewMemoryStore returns a store preloaded with seen.
func NewMemoryStore(seen map[string]time.Time) *MemoryStore {
	s := &MemoryStore{seen: make(map[string]time.Time, len(seen))}
	for id, ts := range seen {
		s.seen[id] = ts
	}
	return s
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) (map[string]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time, len(s.seen))
	for id, ts := range s.seen {
		out[id] = ts
	}
	return out, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, seen map[string]time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]time.Time, len(seen))
	for id, ts := range seen {
		s.seen[id] = ts
	}
	return nil
}
