// Package nec transmits and receives infrared remote-control codes using
// the NEC protocol.
//
// NEC protocol references
// https://www.sbprojects.net/knowledge/ir/nec.php
// https://techdocs.altium.com/display/FPGA/NEC+Infrared+Transmission+Protocol
package nec

import (
	"time"
)

const (
	HeaderMark  = 9000 * time.Microsecond
	HeaderSpace = 4500 * time.Microsecond
	RepeatSpace = 2250 * time.Microsecond
	BitMark     = 560 * time.Microsecond
	OneSpace    = 1690 * time.Microsecond
	ZeroSpace   = 560 * time.Microsecond

	// RepeatPeriod is how often a remote resends the repeat code while a
	// button is held.
	RepeatPeriod = 108 * time.Millisecond

	// Real marks come out slightly long, so they are shortened by bitBias
	// and the following space is lengthened by the same amount.
	bitBias = 50 * time.Microsecond
)

// Timing holds the mark and space lengths a Sender emits.
type Timing struct {
	HeaderMark  time.Duration
	HeaderSpace time.Duration
	RepeatSpace time.Duration
	BitMark     time.Duration
	OneSpace    time.Duration
	ZeroSpace   time.Duration
}

// CorrectedTiming returns the NEC timings shortened by a transmitter's
// per-wait overhead.
func CorrectedTiming(correction time.Duration) Timing {
	return Timing{
		HeaderMark:  HeaderMark - correction,
		HeaderSpace: HeaderSpace - correction,
		RepeatSpace: RepeatSpace - correction,
		BitMark:     BitMark - correction + bitBias,
		OneSpace:    OneSpace - correction - bitBias,
		ZeroSpace:   ZeroSpace - correction - bitBias,
	}
}
