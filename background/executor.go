package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/sparques/irnec/internal/irq"
)

const (
	defaultPause = 100 * time.Millisecond

	// PendingSlots is how many jobs an executor buffers between two
	// iterations. Schedule returns 0 once the buffer is full.
	PendingSlots = 64
)

// pendingJobs is a fixed slot arena. Filling it never allocates, so jobs can
// be submitted from interrupt handlers.
type pendingJobs struct {
	jobs [PendingSlots]job
	n    int
}

// Executor owns one queue of jobs. Jobs and cancellations submitted while
// the executor is iterating are buffered and applied at the start of the
// next Step, so handlers may schedule and cancel freely.
type Executor struct {
	queue Queue
	clock Clock
	yield func()
	log   *slog.Logger

	mu      irq.Lock
	front   *pendingJobs
	cancels []JobID
	pause   time.Duration

	// only touched by Step
	back *pendingJobs
	jobs []*job
}

func newExecutor(q Queue, clock Clock, yield func(), log *slog.Logger) *Executor {
	return &Executor{
		queue: q,
		clock: clock,
		yield: yield,
		log:   log,
		pause: defaultPause,
		front: new(pendingJobs),
		back:  new(pendingJobs),
	}
}

// push copies j into the pending arena. It reports false when the arena is
// full. Safe to call from interrupt context.
func (e *Executor) push(j job) bool {
	e.mu.Lock()
	if e.front.n == len(e.front.jobs) {
		e.mu.Unlock()
		return false
	}
	if j.mode == Repeat && j.delay > 0 && j.delay < e.pause {
		e.pause = j.delay.Truncate(time.Millisecond)
		if e.pause < time.Millisecond {
			e.pause = time.Millisecond
		}
	}
	e.front.jobs[e.front.n] = j
	e.front.n++
	e.mu.Unlock()
	return true
}

func (e *Executor) cancel(id JobID) {
	e.mu.Lock()
	e.cancels = append(e.cancels, id)
	e.mu.Unlock()
}

// Pause is the time the executor sleeps between iterations.
func (e *Executor) Pause() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pause
}

// Len is the number of live jobs.
func (e *Executor) Len() int {
	return len(e.jobs)
}

// Step runs one iteration: merge new jobs, drop finished and cancelled ones,
// then tick every live job by elapsed. Step must not run concurrently with
// itself.
func (e *Executor) Step(elapsed time.Duration) {
	e.mu.Lock()
	fresh := e.front
	e.front, e.back = e.back, e.front
	cancels := e.cancels
	e.cancels = nil
	e.mu.Unlock()

	for i := 0; i < fresh.n; i++ {
		j := fresh.jobs[i]
		e.jobs = append(e.jobs, &j)
		fresh.jobs[i] = job{}
	}
	fresh.n = 0

	e.drop(cancels)

	if e.queue == Priority {
		for i := len(e.jobs) - 1; i >= 0; i-- {
			e.runJob(e.jobs[i], elapsed)
		}
		return
	}
	for i := 0; i < len(e.jobs); i++ {
		e.runJob(e.jobs[i], elapsed)
	}
}

func (e *Executor) runJob(j *job, elapsed time.Duration) {
	if j.done {
		return
	}
	if ran, _ := j.tick(elapsed); ran {
		e.yield()
	}
}

func (e *Executor) drop(ids []JobID) {
	var gone map[JobID]struct{}
	if len(ids) > 0 {
		gone = make(map[JobID]struct{}, len(ids))
		for _, id := range ids {
			gone[id] = struct{}{}
		}
	}
	live := e.jobs[:0]
	for _, j := range e.jobs {
		if j.done {
			continue
		}
		if _, ok := gone[j.id]; ok {
			continue
		}
		live = append(live, j)
	}
	for i := len(live); i < len(e.jobs); i++ {
		e.jobs[i] = nil
	}
	e.jobs = live
}

func (e *Executor) run(ctx context.Context) {
	e.log.Debug("executor started", slog.String("queue", e.queue.String()))
	defer e.log.Debug("executor stopped", slog.String("queue", e.queue.String()))

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	previous := e.clock.Now()
	for {
		now := e.clock.Now()
		elapsed := now - previous
		previous = now

		e.Step(elapsed)

		timer.Reset(e.Pause())
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
