package runstore

import (
	"context"
	"sort"
	"sync"
)

// DefaultMaxEntries bounds a MemoryStore created without WithMaxEntries.
const DefaultMaxEntries = 10000

// MemoryStore is an in-memory run store. Data is lost when the process exits.
//
// The store holds at most MaxEntries runs. When a new run would exceed the
// bound, the least recently written finished run is evicted; if every run
// is still in flight, the least recently written run is evicted instead.
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string]storedRun
	seq        uint64
	maxEntries int
	closed     bool
}

// storedRun holds the encoded record with the metadata eviction needs.
type storedRun struct {
	data     []byte
	status   Status
	sequence uint64
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMaxEntries sets the maximum number of runs kept.
// Values <= 0 keep DefaultMaxEntries.
func WithMaxEntries(n int) MemoryOption {
	return func(m *MemoryStore) {
		if n > 0 {
			m.maxEntries = n
		}
	}
}

// NewMemoryStore creates a new in-memory run store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		data:       make(map[string]storedRun),
		maxEntries: DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	rec, err := stamp(rec)
	if err != nil {
		return err
	}
	// Encoding copies the record so later caller mutations never leak in.
	data, err := Marshal(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if _, exists := m.data[rec.RunID]; !exists && len(m.data) >= m.maxEntries {
		m.evictLocked()
	}

	m.seq++
	m.data[rec.RunID] = storedRun{
		data:     data,
		status:   rec.Status,
		sequence: m.seq,
	}
	return nil
}

// evictLocked drops one run. Caller must hold m.mu.
func (m *MemoryStore) evictLocked() {
	var (
		victim         string
		victimSeq      uint64
		victimFinished bool
	)
	for id, run := range m.data {
		finished := run.status.Finished()
		switch {
		case victim == "":
		case finished && !victimFinished:
		case finished == victimFinished && run.sequence < victimSeq:
		default:
			continue
		}
		victim, victimSeq, victimFinished = id, run.sequence, finished
	}
	delete(m.data, victim)
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, runID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, ErrStoreClosed
	}

	run, ok := m.data[runID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Unmarshal(run.data)
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return m.data[ids[i]].sequence < m.data[ids[j]].sequence
	})
	return ids, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.data, runID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Len returns the number of runs held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
