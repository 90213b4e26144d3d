package nec

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/sparques/irnec"
	"github.com/sparques/irnec/background"
	"github.com/sparques/irnec/irnectest"
)

type rig struct {
	clock *irnectest.Clock
	edges *irnectest.Edges
	sched *background.Scheduler
	rcv   *Receiver
}

func newRig() *rig {
	r := &rig{
		clock: &irnectest.Clock{},
		edges: &irnectest.Edges{},
	}
	r.sched = background.New(background.WithManualStep(), background.WithClock(r.clock))
	r.rcv = NewReceiver(r.sched, WithClock(r.clock))
	return r
}

// feed replays pairs, advancing the clock to the end of every space first.
func (r *rig) feed(pairs ...irnec.TimePair) {
	for _, p := range pairs {
		r.clock.Advance(p.Mark() + p.Space())
		r.edges.Feed(p)
	}
}

func (r *rig) sendCode(code uint32) {
	pairs := NewFrame32(CorrectedTiming(0), code).MarshalFrame()
	pairs[len(pairs)-1][1] = 40 * time.Millisecond
	r.feed(pairs...)
}

func (r *rig) sendRepeat() {
	r.feed(
		irnec.TimePair{HeaderMark, RepeatSpace},
		irnec.TimePair{BitMark, RepeatPeriod - HeaderMark - RepeatSpace - BitMark},
	)
}

func (r *rig) runCallbacks() {
	r.sched.Step(background.UserCallback, time.Millisecond)
}

func code(address, command byte) uint32 {
	c, err := ParseCode(FormatCode(address, command))
	if err != nil {
		panic(err)
	}
	return c
}

func TestReceiverDefaults(t *testing.T) {
	c := qt.New(t)
	r := newRig()

	c.Assert(r.rcv.Protocol(), qt.Equals, Protocol(0))
	c.Assert(r.rcv.HeldButton(), qt.Equals, NoButton)
	c.Assert(r.rcv.LastButton(), qt.Equals, NoButton)
	c.Assert(r.rcv.Datagram(), qt.Equals, "0x00000000")
	c.Assert(r.rcv.WasDataReceived(), qt.IsFalse)
	c.Assert(r.rcv.MaxBits(), qt.Equals, 0)
}

func TestReceiverConnectOnce(t *testing.T) {
	c := qt.New(t)
	r := newRig()

	r.rcv.Connect(r.edges, Protocol(0))
	c.Assert(r.edges.Attached(), qt.IsFalse)

	r.rcv.Connect(r.edges, ProtocolNEC)
	c.Assert(r.edges.Attached(), qt.IsTrue)
	c.Assert(r.rcv.Protocol(), qt.Equals, ProtocolNEC)

	other := &irnectest.Edges{}
	r.rcv.Connect(other, ProtocolKeyestudio)
	c.Assert(other.Attached(), qt.IsFalse)
	c.Assert(r.rcv.Protocol(), qt.Equals, ProtocolNEC)
	c.Assert(r.sched.Executor(background.Priority).Pause(), qt.Equals, 100*time.Millisecond)
}

func TestReceiverPressRelease(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.rcv.Connect(r.edges, ProtocolNEC)

	a := ButtonOf(uint64(code(0x00, 0x45)))
	b := ButtonOf(uint64(code(0x00, 0x46)))
	var got []string
	r.rcv.OnButton(b, Pressed, func() { got = append(got, "press B") })
	r.rcv.OnButton(a, Pressed, func() { got = append(got, "press A") })
	r.rcv.OnButton(a, Released, func() { got = append(got, "release A") })
	r.rcv.OnButton(b, Released, func() { got = append(got, "release B") })

	r.sendCode(code(0x00, 0x45))
	r.runCallbacks()
	c.Assert(got, qt.DeepEquals, []string{"press A"})
	c.Assert(r.rcv.HeldButton(), qt.Equals, a)

	for i := 0; i < 3; i++ {
		r.sendRepeat()
		r.sched.Step(background.Priority, RepeatPeriod)
		r.runCallbacks()
		c.Assert(r.rcv.HeldButton(), qt.Equals, a)
	}

	r.clock.Advance(300 * time.Millisecond)
	r.sched.Step(background.Priority, 300*time.Millisecond)
	r.runCallbacks()
	c.Assert(r.rcv.HeldButton(), qt.Equals, NoButton)
	c.Assert(r.rcv.LastButton(), qt.Equals, a)

	for i := 0; i < 5; i++ {
		r.clock.Advance(DefaultRepeatTimeout)
		r.sched.Step(background.Priority, DefaultRepeatTimeout)
		r.runCallbacks()
	}
	c.Assert(got, qt.DeepEquals, []string{"press A", "release A"})
}

func TestReceiverSwitchButtons(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.rcv.Connect(r.edges, ProtocolNEC)

	var got []string
	r.rcv.OnButton(AnyButton, Pressed, func() { got = append(got, "press") })
	r.rcv.OnButton(AnyButton, Released, func() { got = append(got, "release") })

	r.sendCode(code(0x00, 0x01))
	r.sendCode(code(0x00, 0x01))
	r.runCallbacks()
	c.Assert(got, qt.DeepEquals, []string{"press"})

	r.sendCode(code(0x00, 0x02))
	r.runCallbacks()
	c.Assert(got, qt.DeepEquals, []string{"press", "release", "press"})
	c.Assert(r.rcv.HeldButton(), qt.Equals, ButtonOf(uint64(code(0x00, 0x02))))
}

func TestReceiverFirstHandlerWins(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.rcv.Connect(r.edges, ProtocolNEC)

	var got []string
	r.rcv.OnButton(AnyButton, Pressed, func() { got = append(got, "any") })
	r.rcv.OnButton(ButtonOf(uint64(code(0x00, 0x10))), Pressed, func() { got = append(got, "exact") })

	r.sendCode(code(0x00, 0x10))
	r.runCallbacks()
	c.Assert(got, qt.DeepEquals, []string{"any"})
}

func TestReceiverDatagrams(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.rcv.Connect(r.edges, ProtocolKeyestudio)

	datagrams := 0
	r.rcv.OnDatagram(func() { datagrams++ })

	r.sendCode(0x00FF02FD)
	r.sendRepeat()
	r.sendCode(0x00FF02FD)
	r.runCallbacks()
	c.Assert(datagrams, qt.Equals, 2)
	c.Assert(r.rcv.Datagram(), qt.Equals, "0xFF02FD")
	c.Assert(r.rcv.LastButton(), qt.Equals, Button(0xFF02))
	c.Assert(r.rcv.MaxBits(), qt.Equals, 32)

	c.Assert(r.rcv.WasDataReceived(), qt.IsTrue)
	c.Assert(r.rcv.WasDataReceived(), qt.IsFalse)

	r.sendRepeat()
	c.Assert(r.rcv.WasDataReceived(), qt.IsFalse)
}

func TestReceiverReleaseDropsPartialFrame(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.rcv.Connect(r.edges, ProtocolNEC)

	r.sendCode(code(0x01, 0x02))
	// half a frame, then the remote goes quiet
	pairs := NewFrame32(CorrectedTiming(0), code(0x03, 0x04)).MarshalFrame()
	r.feed(pairs[:10]...)

	r.clock.Advance(time.Second)
	r.sched.Step(background.Priority, time.Second)
	c.Assert(r.rcv.HeldButton(), qt.Equals, NoButton)

	c.Assert(r.rcv.MaxBits(), qt.Equals, 32)

	r.sendCode(code(0x85, 0x06))
	c.Assert(r.rcv.Datagram(), qt.Equals, FormatCode(0x85, 0x06))
}

func TestReceiverQueriesYield(t *testing.T) {
	c := qt.New(t)

	yields := 0
	clock := &irnectest.Clock{}
	sched := background.New(background.WithManualStep(),
		background.WithClock(clock),
		background.WithYield(func() { yields++ }))
	rcv := NewReceiver(sched, WithClock(clock))

	queries := []struct {
		name string
		call func()
	}{
		{"WasDataReceived", func() { rcv.WasDataReceived() }},
		{"Datagram", func() { rcv.Datagram() }},
		{"HeldButton", func() { rcv.HeldButton() }},
		{"LastButton", func() { rcv.LastButton() }},
	}
	for _, q := range queries {
		c.Run(q.name, func(c *qt.C) {
			before := yields
			q.call()
			c.Assert(yields-before, qt.Equals, 1)
		})
	}
}

func TestReceiverConnectOpensExecutors(t *testing.T) {
	c := qt.New(t)
	r := newRig()

	c.Assert(r.sched.Executor(background.UserCallback), qt.IsNil)
	r.rcv.Connect(r.edges, ProtocolNEC)
	c.Assert(r.sched.Executor(background.Priority), qt.IsNotNil)
	c.Assert(r.sched.Executor(background.UserCallback), qt.IsNotNil)
}

func TestReceiverPulsePathDoesNotAllocate(t *testing.T) {
	c := qt.New(t)
	r := newRig()
	r.rcv.Connect(r.edges, ProtocolNEC)

	calls := 0
	count := func() { calls++ }
	r.rcv.OnDatagram(count)
	r.rcv.OnButton(AnyButton, Pressed, count)
	r.rcv.OnButton(AnyButton, Released, count)

	frames := [2][]irnec.TimePair{
		NewFrame32(CorrectedTiming(0), code(0x00, 0x45)).MarshalFrame(),
		NewFrame32(CorrectedTiming(0), code(0x00, 0x46)).MarshalFrame(),
	}
	for _, f := range frames {
		f[len(f)-1][1] = 40 * time.Millisecond
	}

	// alternate buttons so every frame queues datagram, release and press
	n := 0
	allocs := testing.AllocsPerRun(10, func() {
		for _, p := range frames[n%2] {
			r.rcv.HandleTimePair(p)
		}
		n++
	})
	c.Assert(allocs, qt.Equals, float64(0))

	r.runCallbacks()
	c.Assert(calls, qt.Equals, 3*n-1)
}

type pairLog []irnec.TimePair

func (l *pairLog) HandleTimePair(p irnec.TimePair) {
	*l = append(*l, p)
}

func TestReceiverTap(t *testing.T) {
	c := qt.New(t)

	clock := &irnectest.Clock{}
	edges := &irnectest.Edges{}
	sched := background.New(background.WithManualStep(), background.WithClock(clock))
	var seen pairLog
	rcv := NewReceiver(sched, WithClock(clock), WithTap(&seen), WithTap(nil))
	rcv.Connect(edges, ProtocolNEC)

	pairs := NewFrame32(CorrectedTiming(0), code(0x85, 0x06)).MarshalFrame()
	pairs[len(pairs)-1][1] = 40 * time.Millisecond
	for _, p := range pairs {
		clock.Advance(p.Mark() + p.Space())
		edges.Feed(p)
	}

	c.Assert([]irnec.TimePair(seen), qt.DeepEquals, pairs)
	c.Assert(rcv.Datagram(), qt.Equals, FormatCode(0x85, 0x06))
}
