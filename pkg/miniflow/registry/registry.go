package registry

import (
	"cmp"
	"errors"
	"slices"
	"sync"
)

// Sentinel errors for Insert.
var (
	// ErrExists indicates the key is already registered.
	ErrExists = errors.New("key already registered")

	// ErrFull indicates a bounded registry has reached its limit.
	ErrFull = errors.New("registry is full")
)

// Registry is a thread-safe registry for values indexed by an ordered key.
// It uses sync.RWMutex for read-heavy workloads.
type Registry[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	limit   int
}

// New creates a new empty, unbounded registry.
func New[K cmp.Ordered, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// NewBounded creates a registry that holds at most limit entries.
// A limit <= 0 means unbounded.
func NewBounded[K cmp.Ordered, V any](limit int) *Registry[K, V] {
	r := New[K, V]()
	if limit > 0 {
		r.limit = limit
	}
	return r
}

// Register adds or replaces a value. It ignores the bound; use Insert
// where the bound must hold.
func (r *Registry[K, V]) Register(key K, value V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = value
}

// Insert adds a value under a new key.
// Returns ErrExists if the key is taken and ErrFull if the bound is reached.
func (r *Registry[K, V]) Insert(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return ErrExists
	}
	if r.limit > 0 && len(r.entries) >= r.limit {
		return ErrFull
	}
	r.entries[key] = value
	return nil
}

// Get returns the value for a key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Has returns true if the key exists in the registry.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[key]
	return ok
}

// Delete removes a key from the registry.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Keys returns all keys in ascending order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	keys := make([]K, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Len returns the number of entries in the registry.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Limit returns the bound, or 0 if the registry is unbounded.
func (r *Registry[K, V]) Limit() int {
	return r.limit
}

// Range calls fn for each entry in key order until fn returns false.
//
// Range iterates over a snapshot, so fn may call Register or Delete
// without affecting the current iteration.
func (r *Registry[K, V]) Range(fn func(K, V) bool) {
	r.mu.RLock()
	snapshot := make(map[K]V, len(r.entries))
	for k, v := range r.entries {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	keys := make([]K, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if !fn(k, snapshot[k]) {
			return
		}
	}
}
