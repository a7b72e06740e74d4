package threadpool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Task.
type State int32

const (
	StateQueued State = iota
	StateRunning
	StateDone
	StateCancelled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is one unit of pushed work.
type Task struct {
	// ID is unique per task and used in logs.
	ID string

	run   func(ctx context.Context) error
	state atomic.Int32
	once  sync.Once
	done  chan struct{}
	err   error
}

func newTask(run func(ctx context.Context) error) *Task {
	return &Task{
		ID:   uuid.NewString(),
		run:  run,
		done: make(chan struct{}),
	}
}

// State returns the current state.
func (t *Task) State() State {
	return State(t.state.Load())
}

// Done is closed when the task has finished or was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Await blocks until the task has finished and returns its error.
func (t *Task) Await() error {
	<-t.done
	return t.err
}

// Wait is Await bounded by ctx.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish records the result once; later calls are ignored.
func (t *Task) finish(state State, err error) {
	t.once.Do(func() {
		t.err = err
		t.state.Store(int32(state))
		close(t.done)
	})
}
