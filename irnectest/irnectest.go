// Package irnectest provides in-memory stand-ins for the hardware an IR
// transmitter and receiver talk to.
package irnectest

import (
	"sync"
	"time"

	"github.com/sparques/irnec"
)

// Clock is a manually advanced irnec.Clock.
type Clock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Line records what a transmitter emits. It is both the irnec.Carrier and
// the irnec.Waiter, so every wait is attributed to the current level. Each
// Set advances Clock by Overhead to mimic a slow output driver.
type Line struct {
	Clock        *Clock
	Overhead     time.Duration
	ConfigureErr error

	mu     sync.Mutex
	period time.Duration
	on     bool
	sets   int
	pairs  []irnec.TimePair
}

// NewLine returns a Line driven by clock.
func NewLine(clock *Clock) *Line {
	return &Line{Clock: clock}
}

func (l *Line) Configure(period time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.period = period
	return l.ConfigureErr
}

func (l *Line) Top() uint32 {
	return 1023
}

func (l *Line) Set(duty uint32) {
	l.Clock.Advance(l.Overhead)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sets++
	if duty > 0 && !l.on {
		l.pairs = append(l.pairs, irnec.TimePair{})
	}
	l.on = duty > 0
}

func (l *Line) Wait(d time.Duration) {
	if d <= 0 {
		return
	}
	l.Clock.Advance(d)

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pairs) == 0 {
		return
	}
	if l.on {
		l.pairs[len(l.pairs)-1][0] += d
	} else {
		l.pairs[len(l.pairs)-1][1] += d
	}
}

// Period is the carrier period last configured.
func (l *Line) Period() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.period
}

// Sets counts calls to Set since the last Reset.
func (l *Line) Sets() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sets
}

// Pairs returns the mark/space pairs emitted since the last Reset.
func (l *Line) Pairs() []irnec.TimePair {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]irnec.TimePair(nil), l.pairs...)
}

func (l *Line) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sets = 0
	l.pairs = nil
}

// Edges is an irnec.EdgeSource fed by the test.
type Edges struct {
	mu      sync.Mutex
	handler func(irnec.Pulse)
}

func (e *Edges) OnPulse(handler func(irnec.Pulse)) {
	e.mu.Lock()
	e.handler = handler
	e.mu.Unlock()
}

// Attached reports whether a handler is registered.
func (e *Edges) Attached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handler != nil
}

// Feed replays pairs as an active-low receiver reports them: the line is
// low for the mark and high for the space.
func (e *Edges) Feed(pairs ...irnec.TimePair) {
	e.mu.Lock()
	h := e.handler
	e.mu.Unlock()
	if h == nil {
		return
	}
	for _, p := range pairs {
		h(irnec.Pulse{Level: false, Width: p.Mark()})
		h(irnec.Pulse{Level: true, Width: p.Space()})
	}
}
