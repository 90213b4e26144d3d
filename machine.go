//go:build tinygo

package irnec

import (
	"machine"
	"time"

	"github.com/sparques/pwm"
)

// PWMCarrier drives an IR LED from a hardware PWM channel.
type PWMCarrier struct {
	pgroup pwm.Group
	ch     uint8
}

func NewPWMCarrier(pin machine.Pin) (*PWMCarrier, error) {
	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	pgroup := pwm.Get(pin)
	ch, err := pgroup.Channel(pin)
	if err != nil {
		return nil, err
	}
	return &PWMCarrier{
		pgroup: pgroup,
		ch:     ch,
	}, nil
}

func (pc *PWMCarrier) Configure(period time.Duration) error {
	return pc.pgroup.Configure(machine.PWMConfig{Period: uint64(period)})
}

func (pc *PWMCarrier) Set(duty uint32) {
	pc.pgroup.Set(pc.ch, duty)
}

func (pc *PWMCarrier) Top() uint32 {
	return pc.pgroup.Top()
}

// PinEdges reports pulses on an input pin from its edge interrupt.
type PinEdges struct {
	pin       machine.Pin
	lastPulse time.Time
	handler   func(Pulse)
}

func NewPinEdges(pin machine.Pin) *PinEdges {
	// the most common receivers have a pull up pin builtin
	// but in the future, may want to add the option to use PinPullupInput
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return &PinEdges{pin: pin}
}

func (pe *PinEdges) interruptHandler(interruptPin machine.Pin) {
	ptime := time.Now()
	// the pin reads the level it just switched to
	pe.handler(Pulse{Level: !interruptPin.Get(), Width: ptime.Sub(pe.lastPulse)})
	pe.lastPulse = ptime
}

func (pe *PinEdges) OnPulse(handler func(Pulse)) {
	if handler == nil {
		pe.pin.SetInterrupt(machine.PinFalling|machine.PinRising, nil)
		pe.handler = nil
		return
	}
	pe.handler = handler
	pe.lastPulse = time.Now()
	pe.pin.SetInterrupt(machine.PinFalling|machine.PinRising, pe.interruptHandler)
}
