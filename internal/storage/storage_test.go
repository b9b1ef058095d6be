package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyValue_ComputesOnce(t *testing.T) {
	m := NewManager()
	calls := 0
	lazy := NewLazyValue(m, func(ctx context.Context) (string, error) {
		calls++
		return "kotlin.Any", nil
	})

	assert.False(t, lazy.IsComputed())

	v1, err := lazy.Get(context.Background())
	require.NoError(t, err)
	v2, err := lazy.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "kotlin.Any", v1)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
	assert.True(t, lazy.IsComputed())
	assert.Equal(t, Strict, lazy.Policy())

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.Computations)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.InDelta(t, 50.0, stats.HitRate(), 0.001)
}

func TestLazyValue_StrictRecursion(t *testing.T) {
	m := NewManager()
	calls := 0
	var lazy *LazyValue[int]
	lazy = NewLazyValue(m, func(ctx context.Context) (int, error) {
		calls++
		inner, err := lazy.Get(ctx)
		if err != nil {
			return 0, err
		}
		return inner + 1, nil
	}, Label[int]("supertypes"))

	_, err := lazy.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecursionDetected))
	assert.Contains(t, err.Error(), "supertypes")
	assert.False(t, lazy.IsComputed(), "failures must not be cached")

	_, err = lazy.Get(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, calls, "a failed computation is retried on the next access")
	assert.Equal(t, int64(2), m.Stats().RecursionErrors)
}

func TestLazyValue_RecursionTolerantFallback(t *testing.T) {
	m := NewManager()
	var lazy *LazyValue[[]string]
	lazy = NewRecursionTolerantLazyValue(m, func(ctx context.Context) ([]string, error) {
		inner, err := lazy.Get(ctx)
		if err != nil {
			return nil, err
		}
		return append(inner, "kotlin.Any"), nil
	}, []string{})

	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kotlin.Any"}, v)
	assert.Equal(t, RecursionTolerant, lazy.Policy())

	// the outer result is what gets cached, not the fallback
	again, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kotlin.Any"}, again)
	assert.Equal(t, int64(1), m.Stats().RecursionFallbacks)
}

func TestLazyValue_FailureIsRetried(t *testing.T) {
	m := NewManager()
	calls := 0
	boom := errors.New("class file unreadable")
	lazy := NewLazyValue(m, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 42, nil
	})

	_, err := lazy.Get(context.Background())
	assert.ErrorIs(t, err, boom)

	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, int64(1), m.Stats().Failures)
}

func TestLazyValue_PanicResetsCell(t *testing.T) {
	m := NewManager()
	calls := 0
	lazy := NewLazyValue(m, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			panic("corrupt record")
		}
		return 7, nil
	})

	assert.Panics(t, func() {
		_, _ = lazy.Get(context.Background())
	})

	v, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestLazyValue_Cancelled(t *testing.T) {
	m := NewManager()
	lazy := NewLazyValue(m, func(ctx context.Context) (int, error) {
		return 1, nil
	}, Label[int]("members"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := lazy.Get(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, lazy.IsComputed())
}

func TestLazyValue_ConcurrentAccessComputesOnce(t *testing.T) {
	m := NewManager()
	var calls atomic.Int32
	type descriptor struct{ name string }

	lazy := NewLazyValue(m, func(ctx context.Context) (*descriptor, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return &descriptor{name: "java.lang.String"}, nil
	})

	const workers = 50
	results := make([]*descriptor, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := lazy.Get(context.Background())
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestLazyValue_CrossGoroutineCycleCompletes(t *testing.T) {
	m := NewManager()
	aEntered := make(chan struct{})
	bEntered := make(chan struct{})

	var a, b *LazyValue[string]
	a = NewRecursionTolerantLazyValue(m, func(ctx context.Context) (string, error) {
		close(aEntered)
		<-bEntered
		inner, err := b.Get(ctx)
		return "a(" + inner + ")", err
	}, "?")
	b = NewRecursionTolerantLazyValue(m, func(ctx context.Context) (string, error) {
		close(bEntered)
		<-aEntered
		inner, err := a.Get(ctx)
		return "b(" + inner + ")", err
	}, "?")

	done := make(chan struct{})
	var errA, errB error
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errA = a.Get(context.Background())
		}()
		go func() {
			defer wg.Done()
			_, errB = b.Get(context.Background())
		}()
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cross-goroutine cycle deadlocked")
	}

	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.True(t, a.IsComputed())
	assert.True(t, b.IsComputed())
	assert.Equal(t, int64(1), m.Stats().RecursionFallbacks)
}

// waitForWaiters blocks until n call chains are parked on computing cells.
func waitForWaiters(m *Manager, n int) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		m.mu.Lock()
		parked := len(m.waits)
		m.mu.Unlock()
		if parked >= n {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("expected %d waiting chains, have %d", n, parked)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestLazyValue_CrossGoroutineCycleCachedValues(t *testing.T) {
	m := NewManager()
	aEntered := make(chan struct{})
	bEntered := make(chan struct{})

	var a, b *LazyValue[string]
	a = NewRecursionTolerantLazyValue(m, func(ctx context.Context) (string, error) {
		close(aEntered)
		<-bEntered
		inner, err := b.Get(ctx)
		return "a(" + inner + ")", err
	}, "?")
	b = NewRecursionTolerantLazyValue(m, func(ctx context.Context) (string, error) {
		close(bEntered)
		<-aEntered
		// the chain computing a is parked on b before b asks for a
		if err := waitForWaiters(m, 1); err != nil {
			return "", err
		}
		inner, err := a.Get(ctx)
		return "b(" + inner + ")", err
	}, "?")

	var gotA, gotB string
	var errA, errB error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		gotA, errA = a.Get(context.Background())
	}()
	go func() {
		defer wg.Done()
		gotB, errB = b.Get(context.Background())
	}()
	wg.Wait()

	require.NoError(t, errA)
	require.NoError(t, errB)
	// b closed the cycle: it saw the fallback for a and its result is cached;
	// the chain parked on b resumes with that cached value
	assert.Equal(t, "b(?)", gotB)
	assert.Equal(t, "a(b(?))", gotA)

	cachedA, err := a.Get(context.Background())
	require.NoError(t, err)
	cachedB, err := b.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a(b(?))", cachedA)
	assert.Equal(t, "b(?)", cachedB)

	stats := m.Stats()
	assert.Equal(t, int64(1), stats.RecursionFallbacks)
	assert.Equal(t, int64(2), stats.Computations)
}

func TestDetach_StartsNewChain(t *testing.T) {
	m := NewManager()
	inner := NewLazyValue(m, func(ctx context.Context) (int, error) {
		return 3, nil
	})
	outer := NewLazyValue(m, func(ctx context.Context) (int, error) {
		ch := make(chan int, 1)
		errs := make(chan error, 1)
		go func() {
			v, err := inner.Get(Detach(ctx))
			ch <- v
			errs <- err
		}()
		if err := <-errs; err != nil {
			return 0, err
		}
		return <-ch * 2, nil
	})

	v, err := outer.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, v)
}

func TestNullableLazyValue_CachesAbsence(t *testing.T) {
	m := NewManager()
	calls := 0
	lazy := NewNullableLazyValue(m, func(ctx context.Context) (string, bool, error) {
		calls++
		return "", false, nil
	})

	v, ok, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)

	_, ok, err = lazy.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, calls)
	assert.True(t, lazy.IsComputed())
	assert.Equal(t, Nullable, lazy.Policy())
}

func TestMemoizedFunction_PerKey(t *testing.T) {
	m := NewManager()
	calls := map[string]int{}
	var mu sync.Mutex
	fn := NewMemoizedFunction(m, func(ctx context.Context, key string) (int, error) {
		mu.Lock()
		calls[key]++
		mu.Unlock()
		return len(key), nil
	})

	ctx := context.Background()
	for _, key := range []string{"List", "MutableList", "List"} {
		v, err := fn.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, len(key), v)
	}

	assert.Equal(t, 1, calls["List"])
	assert.Equal(t, 1, calls["MutableList"])
	assert.Equal(t, 2, fn.Len())
	assert.True(t, fn.IsComputed("List"))
	assert.False(t, fn.IsComputed("Map"))
}

func TestMemoizedFunction_RecursiveKey(t *testing.T) {
	m := NewManager()
	var fn *MemoizedFunction[int, int]
	fn = NewMemoizedFunction(m, func(ctx context.Context, n int) (int, error) {
		if n == 0 {
			return fn.Get(ctx, 1)
		}
		return fn.Get(ctx, 0)
	}, Label[int]("cycle"))

	_, err := fn.Get(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecursionDetected)
	assert.False(t, fn.IsComputed(0))
	assert.False(t, fn.IsComputed(1))
}

func TestNullableMemoizedFunction(t *testing.T) {
	m := NewManager()
	calls := 0
	fn := NewNullableMemoizedFunction(m, func(ctx context.Context, name string) (string, bool, error) {
		calls++
		if name == "missing" {
			return "", false, nil
		}
		return "class " + name, true, nil
	})

	ctx := context.Background()
	v, ok, err := fn.Get(ctx, "Foo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "class Foo", v)

	_, ok, err = fn.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = fn.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 2, calls)
	assert.True(t, fn.IsComputed("missing"))
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "recursion-tolerant", RecursionTolerant.String())
	assert.Equal(t, "nullable", Nullable.String())
	assert.Equal(t, "policy(9)", Policy(9).String())
}
