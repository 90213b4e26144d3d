//go:build tinygo

package irnec

import (
	"errors"
	"machine"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

type fakeGroup struct {
	configureErr error
	period       uint64
	duty         uint32
}

func (g *fakeGroup) Configure(cfg machine.PWMConfig) error {
	g.period = cfg.Period
	return g.configureErr
}

func (g *fakeGroup) Channel(machine.Pin) (uint8, error) {
	return 0, nil
}

func (g *fakeGroup) SetPeriod(p uint64) error {
	g.period = p
	return nil
}

func (g *fakeGroup) Set(_ uint8, duty uint32) {
	g.duty = duty
}

func (g *fakeGroup) Get(uint8) uint32 {
	return g.duty
}

func (g *fakeGroup) Top() uint32 {
	return 1000
}

func TestPWMCarrierConfigure(t *testing.T) {
	c := qt.New(t)

	g := &fakeGroup{}
	pc := &PWMCarrier{pgroup: g}
	c.Assert(pc.Configure(CarrierPeriod), qt.IsNil)
	c.Assert(g.period, qt.Equals, uint64(26*time.Microsecond))

	g.configureErr = errors.New("no such slice")
	c.Assert(pc.Configure(CarrierPeriod), qt.ErrorIs, g.configureErr)

	_, err := NewTxDevice(pc)
	c.Assert(err, qt.ErrorMatches, "configure carrier: no such slice")
}
