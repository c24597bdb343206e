// Package dispatch runs closures on one dedicated goroutine in the order
// they were posted. It is the only synchronization the coordinator's panel
// state relies on: every mutation is a task, and tasks never overlap.
//
// The worker goroutine is locked to its OS thread so presentation resources
// created by Hooks.Init stay on the thread that created them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/LFroesch/ferry/internal/logger"
)

var (
	// ErrStartup wraps the error returned by Hooks.Init.
	ErrStartup = errors.New("dispatch: startup failed")
	// ErrStopped is returned when a task is refused because the dispatcher
	// failed to start, is stopping, or has stopped.
	ErrStopped = errors.New("dispatch: stopped")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("dispatch: already started")
)

// Task is a unit of work run on the dispatcher goroutine.
type Task func()

// Hooks run on the worker goroutine around the task loop.
type Hooks struct {
	// Init runs before any task. A non-nil error aborts startup.
	Init func() error
	// Cleanup runs after the last task, before Stop returns.
	Cleanup func()
}

// State of a Dispatcher.
type State int

const (
	Idle State = iota
	Running
	Failed
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Failed:
		return "failed"
	case Stopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Dispatcher is a single-goroutine FIFO task queue.
type Dispatcher struct {
	mu       sync.Mutex
	queue    []Task
	state    State
	started  bool
	stopping bool
	hooks    Hooks

	wake chan struct{}
	done chan struct{}
	once sync.Once // closes done when the worker never ran
}

// New creates an idle Dispatcher. Tasks posted before Start are queued.
func New() *Dispatcher {
	return &Dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Start spawns the worker, runs hooks.Init on it and returns once Init has
// finished. If Init fails the worker exits at once and every later Post is
// refused; the returned error wraps ErrStartup.
func (d *Dispatcher) Start(hooks Hooks) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	if d.stopping {
		d.mu.Unlock()
		return ErrStopped
	}
	d.started = true
	d.hooks = hooks
	d.mu.Unlock()

	initErr := make(chan error, 1)
	go d.run(initErr)

	if err := <-initErr; err != nil {
		<-d.done
		logger.Error("Dispatcher failed to start: %v", err)
		return fmt.Errorf("%w: %w", ErrStartup, err)
	}
	return nil
}

func (d *Dispatcher) run(initErr chan<- error) {
	defer close(d.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if d.hooks.Init != nil {
		if err := d.hooks.Init(); err != nil {
			d.mu.Lock()
			d.state = Failed
			d.queue = nil
			d.mu.Unlock()
			initErr <- err
			return
		}
	}

	d.mu.Lock()
	d.state = Running
	d.mu.Unlock()
	initErr <- nil

	for {
		task, ok := d.next()
		if !ok {
			break
		}
		task()
	}

	if d.hooks.Cleanup != nil {
		d.hooks.Cleanup()
	}

	d.mu.Lock()
	d.state = Stopped
	d.mu.Unlock()
}

// next blocks until a task is queued. It reports false once the dispatcher
// is stopping.
func (d *Dispatcher) next() (Task, bool) {
	for {
		d.mu.Lock()
		if d.stopping {
			d.mu.Unlock()
			return nil, false
		}
		if len(d.queue) > 0 {
			task := d.queue[0]
			d.queue[0] = nil
			d.queue = d.queue[1:]
			d.mu.Unlock()
			return task, true
		}
		d.mu.Unlock()
		<-d.wake
	}
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Post queues task behind every task posted before it. It never blocks and
// never runs task inline. It returns false, dropping the task, when the
// dispatcher failed to start or is stopping.
func (d *Dispatcher) Post(task Task) bool {
	if task == nil {
		return false
	}

	d.mu.Lock()
	if d.stopping || d.state == Failed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, task)
	d.mu.Unlock()

	d.signal()
	return true
}

// PostAfter posts task once delay has elapsed. Stop the returned timer to
// cancel it; a post that lands after Stop is dropped like any other.
func (d *Dispatcher) PostAfter(delay time.Duration, task Task) *time.Timer {
	return time.AfterFunc(delay, func() {
		d.Post(task)
	})
}

// Call posts task and waits until it has run or ctx is done. It must not be
// called from a task: the worker would wait on itself.
func (d *Dispatcher) Call(ctx context.Context, task Task) error {
	finished := make(chan struct{})
	if !d.Post(func() {
		defer close(finished)
		task()
	}) {
		return ErrStopped
	}

	select {
	case <-finished:
		return nil
	case <-d.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until the queue is empty, including tasks posted by the
// tasks that ran while waiting. Like Call, never from a task.
func (d *Dispatcher) Flush(ctx context.Context) error {
	for {
		var empty bool
		if err := d.Call(ctx, func() {
			empty = d.Len() == 0
		}); err != nil {
			return err
		}
		if empty {
			return nil
		}
	}
}

// Len returns the number of queued tasks.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// State returns the dispatcher's lifecycle state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Stop refuses new tasks and discards the queued ones. The task running at
// the time of the call finishes, then Hooks.Cleanup runs and Stop returns
// once the worker has exited. Callers waiting in Call get ErrStopped. It is
// idempotent and safe when Start failed or never ran. Calling it from a
// task deadlocks.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopping = true
	if n := len(d.queue); n > 0 {
		logger.Debug("Dispatcher stopping, discarding %d queued tasks", n)
	}
	d.queue = nil
	started := d.started
	if !started {
		d.state = Stopped
	}
	d.mu.Unlock()

	if !started {
		d.once.Do(func() { close(d.done) })
		return
	}

	d.signal()
	<-d.done
}
