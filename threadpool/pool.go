package threadpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/greenscreen/errors"
	"github.com/kbukum/greenscreen/logger"
)

// Hooks observe task execution. They run on the worker goroutine.
type Hooks struct {
	OnStart  func(t *Task)
	OnFinish func(t *Task, err error)
}

// Option configures a Pool.
type Option func(*Pool)

// WithHooks installs execution hooks.
func WithHooks(h Hooks) Option {
	return func(p *Pool) { p.hooks = h }
}

// WithLogger sets the pool logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// Pool is a fixed set of workers draining a FIFO queue.
type Pool struct {
	cfg   Config
	hooks Hooks
	log   *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*Task
	active  int
	closed  bool
	workers sync.WaitGroup
}

// New starts a pool with cfg.Workers workers.
func New(cfg Config, opts ...Option) *Pool {
	cfg.ApplyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		cfg:    cfg,
		log:    logger.Get("threadpool"),
		ctx:    ctx,
		cancel: cancel,
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	p.workers.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}
	return p
}

// Push queues fn with a copy of data. It fails when the pool is closed or
// the queue is full.
func Push[T any](p *Pool, fn func(ctx context.Context, data T) error, data T) (*Task, error) {
	task := newTask(func(ctx context.Context) error {
		return fn(ctx, data)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errors.PoolClosed()
	}
	if len(p.queue) >= p.cfg.QueueSize {
		return nil, errors.QueueFull(p.cfg.QueueSize)
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return task, nil
}

// Pop removes task from the queue if it has not started. The task then
// completes with a TASK_CANCELLED error. Pop returns false for tasks that
// are running, finished or nil.
func (p *Pool) Pop(task *Task) bool {
	if task == nil {
		return false
	}
	p.mu.Lock()
	removed := false
	for i, queued := range p.queue {
		if queued == task {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			removed = true
			break
		}
	}
	p.mu.Unlock()

	if removed {
		task.finish(StateCancelled, errors.TaskCancelled(task.ID))
	}
	return removed
}

// Pending returns the number of queued tasks.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Active returns the number of running tasks.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Close stops accepting work, cancels queued tasks and waits for running
// ones to finish. It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.workers.Wait()
		return
	}
	p.closed = true
	queued := p.queue
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()

	for _, task := range queued {
		task.finish(StateCancelled, errors.PoolClosed())
	}
	p.workers.Wait()
	p.cancel()
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.active++
		task.state.Store(int32(StateRunning))
		p.mu.Unlock()

		err := p.execute(task)

		p.mu.Lock()
		p.active--
		p.mu.Unlock()
		task.finish(StateDone, err)
	}
}

func (p *Pool) execute(task *Task) (err error) {
	if p.hooks.OnStart != nil {
		p.hooks.OnStart(task)
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Errorf("task panicked: %v", r))
			p.log.Error("task panicked", logger.Fields(logger.FieldTaskID, task.ID, logger.FieldError, err))
		}
		if p.hooks.OnFinish != nil {
			p.hooks.OnFinish(task, err)
		}
	}()
	return task.run(p.ctx)
}
