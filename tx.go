package irnec

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	calibrationRuns  = 32
	calibrationPulse = time.Microsecond
	settlePause      = 2000 * time.Microsecond
)

type TxDevice struct {
	carrier    Carrier
	wait       Waiter
	clock      Clock
	duty       uint32
	correction time.Duration
	log        *slog.Logger
}

// TxOption configures a TxDevice.
type TxOption func(*TxDevice)

// WithWaiter replaces the busy-wait used to time marks and spaces.
func WithWaiter(w Waiter) TxOption {
	return func(tx *TxDevice) {
		tx.wait = w
	}
}

// WithClock sets the clock used for self calibration and by the default Waiter.
func WithClock(c Clock) TxOption {
	return func(tx *TxDevice) {
		tx.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) TxOption {
	return func(tx *TxDevice) {
		tx.log = l
	}
}

// NewTxDevice configures the carrier, switches it off and measures the
// overhead of a single Carrier.Set plus Wait. The measured overhead is
// available from Correction and is subtracted by protocol framers.
func NewTxDevice(c Carrier, opts ...TxOption) (*TxDevice, error) {
	tx := &TxDevice{
		carrier: c,
	}
	for _, opt := range opts {
		opt(tx)
	}
	if tx.clock == nil {
		tx.clock = SystemClock()
	}
	if tx.wait == nil {
		tx.wait = BusyWaiter{Clock: tx.clock}
	}
	if tx.log == nil {
		tx.log = DiscardLogger()
	}

	if err := c.Configure(CarrierPeriod); err != nil {
		return nil, fmt.Errorf("configure carrier: %w", err)
	}
	c.Set(0)
	tx.duty = c.Top() / 2

	tx.calibrate()
	return tx, nil
}

func (tx *TxDevice) calibrate() {
	start := tx.clock.Now()
	for i := 0; i < calibrationRuns; i++ {
		tx.TransmitBit(calibrationPulse, calibrationPulse)
	}
	elapsed := tx.clock.Now() - start

	requested := 2 * calibrationRuns * calibrationPulse
	tx.correction = ((elapsed - requested) / (2 * calibrationRuns)).Truncate(time.Microsecond)
	tx.log.Debug("ir transmitter calibrated",
		slog.Duration("elapsed", elapsed),
		slog.Duration("correction", tx.correction))

	// leftovers of the calibration burst would corrupt the first frame
	tx.wait.Wait(settlePause)
}

// Correction is the per-wait overhead measured at construction.
func (tx *TxDevice) Correction() time.Duration {
	return tx.correction
}

// TransmitBit drives the carrier for mark, then switches it off for space.
func (tx *TxDevice) TransmitBit(mark, space time.Duration) {
	tx.carrier.Set(tx.duty)
	tx.wait.Wait(mark)
	tx.carrier.Set(0)
	tx.wait.Wait(space)
}

func (tx *TxDevice) SendPair(pair TimePair) {
	tx.TransmitBit(pair[0], pair[1])
}

func (tx *TxDevice) SendPairs(pairs ...TimePair) {
	for _, p := range pairs {
		tx.SendPair(p)
	}
}

func (tx *TxDevice) SendFrame(fm FrameMarshaller) {
	tx.SendPairs(fm.MarshalFrame()...)
}

func (tx *TxDevice) SendFrames(fms ...FrameMarshaller) {
	for _, fm := range fms {
		tx.SendFrame(fm)
	}
}
