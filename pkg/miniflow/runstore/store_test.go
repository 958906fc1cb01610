package runstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/randalmurphal/miniflow/pkg/miniflow"
	"github.com/randalmurphal/miniflow/pkg/miniflow/runstore"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory creates a store instance for testing.
type storeFactory func(t *testing.T) runstore.Store

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func record(runID string, status runstore.Status, offset int) runstore.Record {
	return runstore.Record{
		RunID:     runID,
		GraphID:   "graph-1",
		Status:    status,
		State:     miniflow.State{"run": runID},
		Log:       []string{"Start node: a"},
		Step:      offset,
		UpdatedAt: epoch.Add(time.Duration(offset) * time.Second),
	}
}

// storeContractTest runs contract tests against any Store implementation.
func storeContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Save_and_Load", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		rec := runstore.Record{
			RunID:     "run-1",
			GraphID:   "g",
			Status:    runstore.StatusFailed,
			State:     miniflow.State{"s": "text", "n": 2.5, "list": []any{"a", true}},
			Log:       []string{"Start node: a", "End node: a -> next: none"},
			Halt:      "",
			Error:     "node a: execute: boom",
			Step:      1,
			UpdatedAt: epoch,
		}
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, rec.RunID, loaded.RunID)
		assert.Equal(t, rec.GraphID, loaded.GraphID)
		assert.Equal(t, rec.Status, loaded.Status)
		assert.Equal(t, rec.State, loaded.State)
		assert.Equal(t, rec.Log, loaded.Log)
		assert.Equal(t, rec.Error, loaded.Error)
		assert.Equal(t, rec.Step, loaded.Step)
		assert.True(t, rec.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run(name+"/Load_NotFound", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		_, err := store.Load(ctx, "run-nonexistent")
		assert.ErrorIs(t, err, runstore.ErrNotFound)
	})

	t.Run(name+"/Save_EmptyRunID", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		err := store.Save(ctx, runstore.Record{Status: runstore.StatusRunning})
		assert.ErrorIs(t, err, runstore.ErrEmptyRunID)
	})

	t.Run(name+"/Save_StampsUpdatedAt", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(ctx, runstore.Record{RunID: "run-1", Status: runstore.StatusPending}))
		loaded, err := store.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.False(t, loaded.UpdatedAt.IsZero())
		assert.NotNil(t, loaded.State)
	})

	t.Run(name+"/Save_Overwrite", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(ctx, record("run-1", runstore.StatusRunning, 1)))
		second := record("run-1", runstore.StatusHalted, 2)
		second.State = miniflow.State{"final": true}
		require.NoError(t, store.Save(ctx, second))

		loaded, err := store.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, runstore.StatusHalted, loaded.Status)
		assert.Equal(t, miniflow.State{"final": true}, loaded.State)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"run-1"}, ids)
	})

	t.Run(name+"/List_Empty", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run(name+"/List_Ordered", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(ctx, record("run-c", runstore.StatusRunning, 1)))
		require.NoError(t, store.Save(ctx, record("run-a", runstore.StatusRunning, 2)))
		require.NoError(t, store.Save(ctx, record("run-b", runstore.StatusRunning, 3)))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"run-c", "run-a", "run-b"}, ids)
	})

	t.Run(name+"/Delete", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		require.NoError(t, store.Save(ctx, record("run-1", runstore.StatusHalted, 1)))
		require.NoError(t, store.Save(ctx, record("run-2", runstore.StatusHalted, 2)))
		require.NoError(t, store.Delete(ctx, "run-1"))

		_, err := store.Load(ctx, "run-1")
		assert.ErrorIs(t, err, runstore.ErrNotFound)

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"run-2"}, ids)
	})

	t.Run(name+"/Delete_Nonexistent", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		assert.NoError(t, store.Delete(ctx, "run-nonexistent"))
	})

	t.Run(name+"/RecordCopy", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		rec := record("run-1", runstore.StatusRunning, 1)
		require.NoError(t, store.Save(ctx, rec))

		// Mutating the saved record afterwards has no effect.
		rec.State["run"] = "mutated"
		rec.Log[0] = "mutated"

		loaded, err := store.Load(ctx, "run-1")
		require.NoError(t, err)
		assert.Equal(t, "run-1", loaded.State["run"])
		assert.Equal(t, "Start node: a", loaded.Log[0])
	})

	t.Run(name+"/Concurrent_IsolatedRuns", func(t *testing.T) {
		store := factory(t)
		defer store.Close()

		const runs = 10
		const writes = 20

		var wg sync.WaitGroup
		for i := 0; i < runs; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				runID := fmt.Sprintf("run-%d", id)
				for step := 1; step <= writes; step++ {
					rec := record(runID, runstore.StatusRunning, step)
					rec.State = miniflow.State{"owner": runID}
					assert.NoError(t, store.Save(ctx, rec))
				}
			}(i)
		}
		wg.Wait()

		for i := 0; i < runs; i++ {
			runID := fmt.Sprintf("run-%d", i)
			loaded, err := store.Load(ctx, runID)
			require.NoError(t, err)
			assert.Equal(t, runID, loaded.State["owner"])
			assert.Equal(t, writes, loaded.Step)
		}
	})
}

// closedContractTest checks stores that refuse work after Close.
func closedContractTest(t *testing.T, name string, factory storeFactory) {
	ctx := context.Background()

	t.Run(name+"/Close_ThenError", func(t *testing.T) {
		store := factory(t)
		require.NoError(t, store.Close())

		err := store.Save(ctx, record("run-1", runstore.StatusRunning, 1))
		assert.ErrorIs(t, err, runstore.ErrStoreClosed)

		_, err = store.Load(ctx, "run-1")
		assert.ErrorIs(t, err, runstore.ErrStoreClosed)

		_, err = store.List(ctx)
		assert.ErrorIs(t, err, runstore.ErrStoreClosed)

		err = store.Delete(ctx, "run-1")
		assert.ErrorIs(t, err, runstore.ErrStoreClosed)
	})
}

// TestMemoryStore runs contract tests against MemoryStore.
func TestMemoryStore(t *testing.T) {
	factory := func(t *testing.T) runstore.Store {
		return runstore.NewMemoryStore()
	}
	storeContractTest(t, "MemoryStore", factory)
	closedContractTest(t, "MemoryStore", factory)
}

// TestSQLiteStore runs contract tests against SQLiteStore.
func TestSQLiteStore(t *testing.T) {
	factory := func(t *testing.T) runstore.Store {
		store, err := runstore.NewSQLiteStore(":memory:")
		require.NoError(t, err)
		return store
	}
	storeContractTest(t, "SQLiteStore", factory)
	closedContractTest(t, "SQLiteStore", factory)
}

// TestRedisStore runs contract tests against RedisStore backed by miniredis.
func TestRedisStore(t *testing.T) {
	factory := func(t *testing.T) runstore.Store {
		mr := miniredis.RunT(t)
		client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
		return runstore.NewRedisStoreFromClient(client)
	}
	storeContractTest(t, "RedisStore", factory)
}
