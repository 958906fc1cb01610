package miniflow

import (
	"context"
	"errors"
	"sync"
)

// Helper node functions shared across tests.

// track returns a node that records its name and mutates nothing else.
func track(name string, visited *[]string) NodeFunc {
	return func(ctx Context, s State) (Result, error) {
		*visited = append(*visited, name)
		return Continue(), nil
	}
}

// setKey returns a node that stores value under key.
func setKey(key string, value any) NodeFunc {
	return func(ctx Context, s State) (Result, error) {
		s[key] = value
		return Continue(), nil
	}
}

// noop leaves the state untouched.
func noop(ctx Context, s State) (Result, error) {
	return Continue(), nil
}

// goTo returns a node that routes explicitly to target.
func goTo(target string) NodeFunc {
	return func(ctx Context, s State) (Result, error) {
		return Goto(target), nil
	}
}

// failing returns a node that fails with err.
func failing(err error) NodeFunc {
	return func(ctx Context, s State) (Result, error) {
		return Continue(), err
	}
}

var errBoom = errors.New("boom")

// mustBuild builds g or panics; used where the graph is known to be valid.
func mustBuild(b *Builder) *Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}

// snapshotRecorder collects Snapshots from a step callback.
type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
	err   error
}

func (r *snapshotRecorder) record(_ context.Context, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return r.err
}

func (r *snapshotRecorder) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}
