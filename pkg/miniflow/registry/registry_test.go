package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New[string, int]()
	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, r.Limit())
}

func TestRegisterAndGet(t *testing.T) {
	r := New[string, int]()

	r.Register("one", 1)
	r.Register("two", 2)

	v, ok := r.Get("one")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = r.Get("three")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestRegisterOverwrite(t *testing.T) {
	r := New[string, string]()

	r.Register("key", "old")
	r.Register("key", "new")

	v, ok := r.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, r.Len())
}

func TestInsert(t *testing.T) {
	r := New[string, int]()

	require.NoError(t, r.Insert("a", 1))
	assert.ErrorIs(t, r.Insert("a", 2), ErrExists)

	v, _ := r.Get("a")
	assert.Equal(t, 1, v)
}

func TestBounded(t *testing.T) {
	r := NewBounded[string, int](2)
	assert.Equal(t, 2, r.Limit())

	require.NoError(t, r.Insert("a", 1))
	require.NoError(t, r.Insert("b", 2))
	assert.ErrorIs(t, r.Insert("c", 3), ErrFull)

	// Deleting frees a slot.
	r.Delete("a")
	require.NoError(t, r.Insert("c", 3))
	assert.Equal(t, []string{"b", "c"}, r.Keys())
}

func TestBounded_NonPositiveIsUnbounded(t *testing.T) {
	r := NewBounded[int, int](0)
	for i := range 100 {
		require.NoError(t, r.Insert(i, i))
	}
	assert.Equal(t, 100, r.Len())
}

func TestHas(t *testing.T) {
	r := New[string, int]()
	r.Register("exists", 1)

	assert.True(t, r.Has("exists"))
	assert.False(t, r.Has("missing"))
}

func TestDelete(t *testing.T) {
	r := New[string, int]()
	r.Register("key", 1)
	r.Delete("key")
	assert.False(t, r.Has("key"))

	// Deleting a missing key is a no-op.
	r.Delete("missing")
	assert.Equal(t, 0, r.Len())
}

func TestKeysSorted(t *testing.T) {
	r := New[string, int]()
	r.Register("zeta", 1)
	r.Register("alpha", 2)
	r.Register("mid", 3)

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Keys())
}

func TestKeysEmpty(t *testing.T) {
	r := New[string, int]()
	assert.Empty(t, r.Keys())
}

func TestRangeInKeyOrder(t *testing.T) {
	r := New[int, string]()
	r.Register(3, "c")
	r.Register(1, "a")
	r.Register(2, "b")

	var got []string
	r.Range(func(k int, v string) bool {
		got = append(got, v)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestRangeEarlyStop(t *testing.T) {
	r := New[int, int]()
	for i := range 10 {
		r.Register(i, i)
	}

	count := 0
	r.Range(func(k, v int) bool {
		count++
		return count < 3
	})
	assert.Equal(t, 3, count)
}

func TestRangeAllowsMutation(t *testing.T) {
	r := New[string, int]()
	r.Register("a", 1)
	r.Register("b", -1)

	r.Range(func(k string, v int) bool {
		if v < 0 {
			r.Delete(k)
		}
		r.Register(k+"-seen", v)
		return true
	})

	assert.False(t, r.Has("b"))
	assert.Equal(t, []string{"a", "a-seen", "b-seen"}, r.Keys())
}

// Thread-safety tests

func TestConcurrentRegister(t *testing.T) {
	r := New[int, int]()
	var wg sync.WaitGroup
	n := 1000

	for i := range n {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			r.Register(val, val*2)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, r.Len())
	for i := range n {
		v, ok := r.Get(i)
		assert.True(t, ok)
		assert.Equal(t, i*2, v)
	}
}

func TestConcurrentInsertRespectsBound(t *testing.T) {
	const limit = 25
	r := NewBounded[string, int](limit)

	var wg sync.WaitGroup
	var accepted, rejected atomic.Int64

	for i := range 200 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := r.Insert(fmt.Sprintf("k%d", id), id); err != nil {
				assert.ErrorIs(t, err, ErrFull)
				rejected.Add(1)
				return
			}
			accepted.Add(1)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(limit), accepted.Load())
	assert.Equal(t, int64(200-limit), rejected.Load())
	assert.Equal(t, limit, r.Len())
}

func TestConcurrentReadWrite(t *testing.T) {
	r := New[int, int]()
	for i := range 100 {
		r.Register(i, i)
	}

	var wg sync.WaitGroup
	var reads atomic.Int64

	for range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := range 100 {
				if _, ok := r.Get(i); ok {
					reads.Add(1)
				}
				_ = r.Keys()
			}
		}()
		go func() {
			defer wg.Done()
			for i := range 100 {
				r.Register(i, i+1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), reads.Load())
	assert.Equal(t, 100, r.Len())
}

func TestConcurrentRangeWithMutations(t *testing.T) {
	r := New[int, int]()
	for i := range 100 {
		r.Register(i, i)
	}

	var wg sync.WaitGroup
	rangeStarted := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		count := 0
		close(rangeStarted)
		r.Range(func(k, v int) bool {
			count++
			return true
		})
		assert.GreaterOrEqual(t, count, 50)
		assert.LessOrEqual(t, count, 100)
	}()

	<-rangeStarted
	for i := range 50 {
		wg.Add(1)
		go func(key int) {
			defer wg.Done()
			r.Delete(key)
		}(i)
	}
	wg.Wait()
}

func TestNilValue(t *testing.T) {
	r := New[string, *int]()
	r.Register("nil", nil)

	v, ok := r.Get("nil")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func BenchmarkGet(b *testing.B) {
	r := New[int, int]()
	for i := range 1000 {
		r.Register(i, i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Get(i % 1000)
	}
}

func BenchmarkKeys(b *testing.B) {
	r := New[string, int]()
	for i := range 1000 {
		r.Register(fmt.Sprintf("key-%04d", i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Keys()
	}
}
