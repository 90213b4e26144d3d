package background

import (
	"io"
	"log/slog"
	"time"
)

// Clock is a monotonic time source. Only differences between readings matter.
type Clock interface {
	Now() time.Duration
}

type systemClock struct {
	epoch time.Time
}

func (c systemClock) Now() time.Duration {
	return time.Since(c.epoch)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Queue selects one of the scheduler's executors.
type Queue int

const (
	// Priority runs housekeeping jobs, newest first.
	Priority Queue = iota
	// UserCallback runs user handlers in submission order.
	UserCallback

	numQueues
)

func (q Queue) String() string {
	switch q {
	case Priority:
		return "priority"
	case UserCallback:
		return "user-callback"
	default:
		return "unknown"
	}
}

type Mode int

const (
	Repeat Mode = iota
	Once
)

// JobID identifies a scheduled job. The zero JobID means "not scheduled".
type JobID uint64

type job struct {
	id        JobID
	fn        func()
	delay     time.Duration
	remaining time.Duration
	mode      Mode
	done      bool
}

func newJob(id JobID, fn func(), delay time.Duration, mode Mode) job {
	return job{
		id:        id,
		fn:        fn,
		delay:     delay,
		remaining: delay,
		mode:      mode,
	}
}

// tick advances the job by elapsed. It reports whether fn ran and whether
// the job is finished and should be dropped.
func (j *job) tick(elapsed time.Duration) (ran, done bool) {
	if elapsed <= 0 {
		return false, false
	}

	j.remaining -= elapsed
	if j.remaining > 0 {
		return false, false
	}

	j.fn()
	if j.mode == Once {
		j.done = true
		return true, true
	}
	j.remaining = j.delay
	return true, false
}
