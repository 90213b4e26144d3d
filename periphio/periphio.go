// Package periphio connects IR transmitters and receivers to GPIO pins on
// Linux hosts through periph.io.
package periphio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/sparques/irnec"
)

// Carrier drives an IR LED with the pin's PWM output. Set cannot return an
// error, so the first failure is kept for Err.
type Carrier struct {
	pin  gpio.PinOut
	freq physic.Frequency

	mu  sync.Mutex
	err error
}

func NewCarrier(pin gpio.PinOut) *Carrier {
	return &Carrier{pin: pin}
}

func (c *Carrier) Configure(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("invalid carrier period %s", period)
	}
	c.freq = physic.PeriodToFrequency(period)
	if err := c.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("set %s low: %w", c.pin, err)
	}
	return nil
}

func (c *Carrier) Set(duty uint32) {
	if duty == 0 {
		if err := c.pin.Out(gpio.Low); err != nil {
			c.fail(fmt.Errorf("set %s low: %w", c.pin, err))
		}
		return
	}
	if err := c.pin.PWM(gpio.Duty(duty), c.freq); err != nil {
		c.fail(fmt.Errorf("pwm %s at %s: %w", c.pin, c.freq, err))
	}
}

func (c *Carrier) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// Err returns the first error the pin reported while driving the carrier.
func (c *Carrier) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Carrier) Top() uint32 {
	return uint32(gpio.DutyMax)
}

// Edges watches an input pin for edges and reports the pulses between them.
// Nothing is reported until Run is called.
type Edges struct {
	pin  gpio.PinIn
	poll time.Duration

	mu      sync.Mutex
	handler func(irnec.Pulse)
}

func NewEdges(pin gpio.PinIn) (*Edges, error) {
	if err := pin.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("configure %s for edge detection: %w", pin, err)
	}
	return &Edges{
		pin:  pin,
		poll: 100 * time.Millisecond,
	}, nil
}

func (e *Edges) OnPulse(handler func(irnec.Pulse)) {
	e.mu.Lock()
	e.handler = handler
	e.mu.Unlock()
}

// Run blocks delivering pulses until ctx is done.
func (e *Edges) Run(ctx context.Context) error {
	level := e.pin.Read()
	last := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.pin.WaitForEdge(e.poll) {
			// quiet line, resync in case an edge was missed
			level = e.pin.Read()
			continue
		}
		now := time.Now()

		e.mu.Lock()
		h := e.handler
		e.mu.Unlock()
		if h != nil {
			h(irnec.Pulse{Level: level == gpio.High, Width: now.Sub(last)})
		}
		// edges alternate; reading back the pin is too slow for 560us pulses
		level = !level
		last = now
	}
}
