package playback

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is the handle of a delayed function queued on a Scheduler.
type Task struct {
	timer     *time.Timer
	cancelled atomic.Bool
	done      atomic.Bool
}

// Cancel prevents the task from running. It reports false if the task already ran
// or was already cancelled.
func (t *Task) Cancel() bool {
	if t.done.Load() || !t.cancelled.CompareAndSwap(false, true) {
		return false
	}
	t.timer.Stop()
	return true
}

// Pending reports whether the task has neither run nor been cancelled.
func (t *Task) Pending() bool {
	return !t.done.Load() && !t.cancelled.Load()
}

// Scheduler runs delayed functions one at a time on a single goroutine.
// Functions never overlap, so they may touch shared playback state without locking.
type Scheduler struct {
	queue chan func()
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewScheduler starts the executor goroutine.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		queue: make(chan func(), 64),
		stop:  make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Scheduler) run() {
	defer s.wg.Done()
	for {
		select {
		case fn := <-s.queue:
			fn()
		case <-s.stop:
			return
		}
	}
}

// After queues fn to run on the executor once d has elapsed.
func (s *Scheduler) After(d time.Duration, fn func()) *Task {
	t := &Task{}
	t.timer = time.AfterFunc(d, func() {
		select {
		case s.queue <- func() {
			if t.cancelled.Load() {
				return
			}
			t.done.Store(true)
			fn()
		}:
		case <-s.stop:
		}
	})
	return t
}

// Close stops the executor. Tasks still pending never run.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}
