package irnec

import (
	"io"
	"log/slog"
	"time"
)

const (
	// Freq38Khz is the most commonly used frequency for IR remotes
	Freq38Khz = 38000

	// CarrierPeriod is the PWM period used for marks. 26us is as close to
	// 38kHz as a microsecond resolution PWM gets.
	CarrierPeriod = 26 * time.Microsecond
)

// TimePair encodes two durations used to encode an on-off or off-on amount of time.
type TimePair [2]time.Duration

// Mark is the carrier-on part of the pair.
func (tp TimePair) Mark() time.Duration { return tp[0] }

// Space is the carrier-off part of the pair.
func (tp TimePair) Space() time.Duration { return tp[1] }

// FrameMarshaller defines an interface for marshalling data to slice of TimePairs
type FrameMarshaller interface {
	MarshalFrame() []TimePair
}

// Carrier drives the IR LED. Set takes a duty value between 0 and Top().
type Carrier interface {
	Configure(period time.Duration) error
	Set(duty uint32)
	Top() uint32
}

// Waiter blocks the caller for d without yielding. Durations <= 0 return immediately.
type Waiter interface {
	Wait(d time.Duration)
}

// Clock is a monotonic time source. The epoch is arbitrary; only differences matter.
type Clock interface {
	Now() time.Duration
}

// Pulse is one completed level of an input line: the line held Level for Width.
type Pulse struct {
	Level bool
	Width time.Duration
}

// EdgeSource reports a Pulse on every rising and falling edge of an input pin.
// Passing a nil handler detaches the previous one.
type EdgeSource interface {
	OnPulse(handler func(Pulse))
}

type systemClock struct {
	epoch time.Time
}

func (c systemClock) Now() time.Duration {
	return time.Since(c.epoch)
}

// SystemClock returns a Clock backed by the runtime's monotonic clock.
func SystemClock() Clock {
	return systemClock{epoch: time.Now()}
}

// BusyWaiter spins on Clock until the requested time has passed. It never
// yields; marks and spaces must not jitter.
type BusyWaiter struct {
	Clock Clock
}

func (bw BusyWaiter) Wait(d time.Duration) {
	if d <= 0 {
		return
	}
	start := bw.Clock.Now()
	for bw.Clock.Now()-start < d {
	}
}

// DiscardLogger is the logger used when none is configured.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
