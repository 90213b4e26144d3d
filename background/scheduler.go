// Package background runs deferred and periodic work outside of interrupt
// context on two independent executors: a Priority queue for housekeeping
// and a UserCallback queue for user handlers.
package background

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type Scheduler struct {
	clock  Clock
	yield  func()
	log    *slog.Logger
	manual bool

	nextID atomic.Uint64

	executors [numQueues]atomic.Pointer[Executor]

	mu   sync.Mutex
	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock executors measure elapsed time with.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithYield replaces the scheduling point run after every job and before
// every receiver query. Defaults to runtime.Gosched.
func WithYield(yield func()) Option {
	return func(s *Scheduler) {
		s.yield = yield
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithManualStep creates executors without background goroutines. The
// owner drives them with Step.
func WithManualStep() Option {
	return func(s *Scheduler) {
		s.manual = true
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = systemClock{epoch: time.Now()}
	}
	if s.yield == nil {
		s.yield = runtime.Gosched
	}
	if s.log == nil {
		s.log = discardLogger()
	}
	s.ctx, s.stop = context.WithCancel(context.Background())
	return s
}

// executor returns the executor for q, creating and starting it on first
// use. Once created, lookups take no lock.
func (s *Scheduler) executor(q Queue) *Executor {
	if e := s.executors[q].Load(); e != nil {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.executors[q].Load(); e != nil {
		return e
	}
	e := newExecutor(q, s.clock, s.yield, s.log)
	s.executors[q].Store(e)
	if !s.manual && s.ctx.Err() == nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			e.run(s.ctx)
		}()
	}
	return e
}

// Open creates and starts the executors for qs ahead of use. After Open,
// Schedule on those queues neither allocates nor starts goroutines, so it is
// safe to call from interrupt handlers.
func (s *Scheduler) Open(qs ...Queue) {
	for _, q := range qs {
		if q >= 0 && q < numQueues {
			s.executor(q)
		}
	}
}

// Schedule queues fn on q to run after delay, once or repeatedly. It returns
// 0 and schedules nothing if fn is nil, delay is negative, the scheduler is
// closed or q already holds PendingSlots jobs waiting to be merged.
func (s *Scheduler) Schedule(fn func(), q Queue, mode Mode, delay time.Duration) JobID {
	if fn == nil || delay < 0 || q < 0 || q >= numQueues {
		return 0
	}
	if !s.manual && s.ctx.Err() != nil {
		return 0
	}
	id := JobID(s.nextID.Add(1))
	if !s.executor(q).push(newJob(id, fn, delay, mode)) {
		return 0
	}
	return id
}

// Remove cancels a job. Cancellation takes effect at the start of the
// executor's next iteration; a job already due in the current iteration
// still runs.
func (s *Scheduler) Remove(q Queue, id JobID) {
	if q < 0 || q >= numQueues {
		return
	}
	if e := s.executors[q].Load(); e != nil {
		e.cancel(id)
	}
}

// Yield lets other ready goroutines run one step.
func (s *Scheduler) Yield() {
	s.yield()
}

// Step runs one iteration of q's executor with the given elapsed time.
// Only meaningful for schedulers created WithManualStep.
func (s *Scheduler) Step(q Queue, elapsed time.Duration) {
	if q < 0 || q >= numQueues {
		return
	}
	s.executor(q).Step(elapsed)
}

// Executor returns the executor for q, or nil if nothing was ever scheduled on it.
func (s *Scheduler) Executor(q Queue) *Executor {
	if q < 0 || q >= numQueues {
		return nil
	}
	return s.executors[q].Load()
}

// Close stops the executor loops and waits for them to return. Jobs still
// queued are dropped.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.stop()
	s.mu.Unlock()
	s.wg.Wait()
}
