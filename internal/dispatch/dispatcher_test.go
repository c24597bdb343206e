package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	d := New()
	require.NoError(t, d.Start(Hooks{}))
	t.Cleanup(d.Stop)
	return d
}

func flush(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Flush(ctx))
}

func TestPost_RunsInFIFOOrder(t *testing.T) {
	d := startDispatcher(t)

	var got []int
	for i := 0; i < 500; i++ {
		i := i
		require.True(t, d.Post(func() { got = append(got, i) }))
	}
	flush(t, d)

	require.Len(t, got, 500)
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestPost_PreservesPerProducerOrderAcrossGoroutines(t *testing.T) {
	d := startDispatcher(t)

	const producers, perProducer = 8, 200
	seen := make([][]int, producers)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				i := i
				d.Post(func() { seen[p] = append(seen[p], i) })
			}
		}(p)
	}
	wg.Wait()
	flush(t, d)

	for p := 0; p < producers; p++ {
		require.Len(t, seen[p], perProducer)
		for i, v := range seen[p] {
			require.Equal(t, i, v, "producer %d out of order", p)
		}
	}
}

func TestPost_NeverRunsInline(t *testing.T) {
	d := startDispatcher(t)

	var order []string
	d.Post(func() {
		d.Post(func() { order = append(order, "inner") })
		order = append(order, "outer-end")
	})
	flush(t, d)

	assert.Equal(t, []string{"outer-end", "inner"}, order)

	ran := false
	gate := make(chan struct{})
	d.Post(func() { <-gate })
	d.Post(func() { ran = true })
	// Post returned while the worker is parked on gate
	assert.False(t, ran)
	close(gate)
	flush(t, d)
	assert.True(t, ran)
}

func TestPost_DoesNotBlockWhileWorkerBusy(t *testing.T) {
	d := startDispatcher(t)

	gate := make(chan struct{})
	d.Post(func() { <-gate })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			d.Post(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Post blocked while the worker was busy")
	}
	close(gate)
}

func TestPost_BeforeStartRunsAfterStart(t *testing.T) {
	d := New()
	var ran atomic.Bool
	require.True(t, d.Post(func() { ran.Store(true) }))

	require.NoError(t, d.Start(Hooks{}))
	defer d.Stop()
	flush(t, d)
	assert.True(t, ran.Load())
}

func TestStart_Twice(t *testing.T) {
	d := startDispatcher(t)
	assert.ErrorIs(t, d.Start(Hooks{}), ErrAlreadyStarted)
	assert.Equal(t, Running, d.State())
}

func TestStart_InitFailure(t *testing.T) {
	d := New()
	initErr := errors.New("no terminal")

	queued := false
	d.Post(func() { queued = true })

	err := d.Start(Hooks{Init: func() error { return initErr }})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartup)
	assert.ErrorIs(t, err, initErr)
	assert.Equal(t, Failed, d.State())

	assert.False(t, d.Post(func() { t.Error("task ran after failed start") }))
	assert.ErrorIs(t, d.Call(context.Background(), func() {}), ErrStopped)

	d.Stop()
	d.Stop()
	assert.False(t, queued)
}

func TestHooks_RunOnWorkerAroundTasks(t *testing.T) {
	d := New()

	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	}

	require.NoError(t, d.Start(Hooks{
		Init:    func() error { record("init"); return nil },
		Cleanup: func() { record("cleanup") },
	}))
	d.Post(func() { record("task") })
	flush(t, d)
	d.Stop()

	assert.Equal(t, []string{"init", "task", "cleanup"}, events)
	assert.Equal(t, Stopped, d.State())
}

func TestStop_DiscardsQueuedTasks(t *testing.T) {
	d := New()
	require.NoError(t, d.Start(Hooks{}))

	gate := make(chan struct{})
	var running, finished atomic.Bool
	var count atomic.Int32
	d.Post(func() {
		running.Store(true)
		<-gate
		finished.Store(true)
	})
	for i := 0; i < 50; i++ {
		d.Post(func() { count.Add(1) })
	}
	require.Eventually(t, running.Load, 5*time.Second, time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	// Stop refuses new tasks as soon as it is called
	require.Eventually(t, func() bool { return !d.Post(func() {}) }, time.Second, time.Millisecond)
	assert.Zero(t, d.Len())

	select {
	case <-stopped:
		t.Fatal("Stop returned before the running task finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(gate)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.True(t, finished.Load())
	assert.Equal(t, int32(0), count.Load())
	assert.Equal(t, Stopped, d.State())
}

func TestStop_FailsCallsStillQueued(t *testing.T) {
	d := New()
	require.NoError(t, d.Start(Hooks{}))

	gate := make(chan struct{})
	var running atomic.Bool
	d.Post(func() {
		running.Store(true)
		<-gate
	})
	require.Eventually(t, running.Load, 5*time.Second, time.Millisecond)

	callErr := make(chan error, 1)
	go func() {
		callErr <- d.Call(context.Background(), func() { t.Error("discarded call ran") })
	}()
	require.Eventually(t, func() bool { return d.Len() == 1 }, 5*time.Second, time.Millisecond)

	go func() {
		// Release the worker only once Stop is refusing posts
		for d.Post(func() {}) {
			time.Sleep(time.Millisecond)
		}
		close(gate)
	}()
	d.Stop()

	select {
	case err := <-callErr:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("Call did not return after Stop")
	}
}

func TestStop_ReturnsWhilePostersAreStillPosting(t *testing.T) {
	d := New()
	require.NoError(t, d.Start(Hooks{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				d.Post(func() { time.Sleep(time.Microsecond) })
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	stopped := make(chan struct{})
	go func() {
		d.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop deadlocked with concurrent posters")
	}
	cancel()
	wg.Wait()
}

func TestStop_IdempotentAndConcurrent(t *testing.T) {
	d := New()
	require.NoError(t, d.Start(Hooks{}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Stop()
		}()
	}
	wg.Wait()
	d.Stop()
	assert.Equal(t, Stopped, d.State())
}

func TestStop_WithoutStart(t *testing.T) {
	d := New()
	d.Post(func() { t.Error("queued task ran without a worker") })
	d.Stop()

	assert.Equal(t, Stopped, d.State())
	assert.ErrorIs(t, d.Start(Hooks{}), ErrStopped)
	assert.ErrorIs(t, d.Call(context.Background(), func() {}), ErrStopped)
}

func TestCall(t *testing.T) {
	d := startDispatcher(t)

	value := 0
	require.NoError(t, d.Call(context.Background(), func() { value = 42 }))
	assert.Equal(t, 42, value)

	gate := make(chan struct{})
	defer close(gate)
	d.Post(func() { <-gate })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Call(ctx, func() {}), context.DeadlineExceeded)
}

func TestFlush_WaitsForChainedTasks(t *testing.T) {
	d := startDispatcher(t)

	var depth int
	var step func()
	step = func() {
		depth++
		if depth < 20 {
			d.Post(step)
		}
	}
	d.Post(step)
	flush(t, d)

	assert.Equal(t, 20, depth)
}

func TestPostAfter(t *testing.T) {
	d := startDispatcher(t)

	fired := make(chan struct{})
	d.PostAfter(5*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("delayed task never ran")
	}

	timer := d.PostAfter(time.Hour, func() { t.Error("cancelled task ran") })
	assert.True(t, timer.Stop())
}
