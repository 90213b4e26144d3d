package irnec

import "time"

type RxDevice struct {
	src          EdgeSource
	markLevel    bool
	lastMark     time.Duration
	stateMachine RxStateMachine
}

type RxStateMachine interface {
	HandleTimePair(TimePair)
}

type fanOut []RxStateMachine

func (f fanOut) HandleTimePair(pair TimePair) {
	for _, sm := range f {
		sm.HandleTimePair(pair)
	}
}

// MultiRxStateMachine hands every pair to each of rsm in order, so a decoder
// and a pair logger can share one receiver pin.
func MultiRxStateMachine(rsm ...RxStateMachine) RxStateMachine {
	return fanOut(rsm)
}

func NewRxDevice(src EdgeSource, rsm RxStateMachine) *RxDevice {
	return &RxDevice{
		src:          src,
		stateMachine: rsm,
	}
}

// handlePulse pairs a mark with the space that follows it. The pair is
// delivered when the space ends, i.e. at the leading edge of the next mark.
func (rx *RxDevice) handlePulse(p Pulse) {
	if p.Level == rx.markLevel {
		rx.lastMark = p.Width
		return
	}
	rx.stateMachine.HandleTimePair(TimePair{rx.lastMark, p.Width})
}

// Start sets the pulse handler and thus starts processing signals.
// Use Start() if your RxStateMachine uses on-off pairs with high as "on".
func (rx *RxDevice) Start() {
	rx.markLevel = true
	rx.src.OnPulse(rx.handlePulse)
}

// StartInverted sets the pulse handler and thus starts processing signals.
// Use StartInverted for demodulating receivers that pull the line low during
// a mark, e.g. NEC.
func (rx *RxDevice) StartInverted() {
	rx.markLevel = false
	rx.src.OnPulse(rx.handlePulse)
}

// Stop detaches the pulse handler.
func (rx *RxDevice) Stop() {
	rx.src.OnPulse(nil)
}
