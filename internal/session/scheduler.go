package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrTaskCancelled = errors.New("task cancelled")

// Task is a delayed callback owned by a Scheduler.
type Task struct {
	id        uint64
	s         *Scheduler
	timer     *time.Timer
	done      chan struct{}
	once      sync.Once
	cancelled bool
}

// Done is closed once the task has run or been cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel prevents a pending task from running. It reports false when the
// task already started or was already cancelled.
func (t *Task) Cancel() bool {
	if t.s == nil || !t.s.remove(t.id) {
		return false
	}
	t.timer.Stop()
	t.finish(true)
	return true
}

// Wait blocks until the task finishes, returning ErrTaskCancelled if it
// never ran.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		if t.cancelled {
			return ErrTaskCancelled
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(cancelled bool) {
	t.once.Do(func() {
		t.cancelled = cancelled
		close(t.done)
	})
}

// Scheduler runs callbacks after a fixed delay. Stop cancels everything
// still pending and the context handed to running callbacks.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[uint64]*Task
	nextID  uint64
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:  make(map[uint64]*Task),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Schedule(delay time.Duration, fn func(ctx context.Context)) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Task{done: make(chan struct{})}
	if s.stopped {
		t.finish(true)
		return t
	}

	s.nextID++
	t.id = s.nextID
	t.s = s
	s.tasks[t.id] = t
	t.timer = time.AfterFunc(delay, func() {
		if !s.remove(t.id) {
			return
		}
		defer t.finish(false)
		fn(s.ctx)
	})
	return t
}

func (s *Scheduler) remove(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	return true
}

// Pending returns the number of tasks that have not started yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	pending := make([]*Task, 0, len(s.tasks))
	for id, t := range s.tasks {
		pending = append(pending, t)
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	s.cancel()
	for _, t := range pending {
		t.timer.Stop()
		t.finish(true)
	}
}
