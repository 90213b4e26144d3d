package nec

import "time"

// Event is what the decoder makes of one mark+space.
type Event int

const (
	EventIncomplete Event = iota
	EventRepeat
	EventDatagram
)

func (e Event) String() string {
	switch e {
	case EventIncomplete:
		return "incomplete"
	case EventRepeat:
		return "repeat"
	case EventDatagram:
		return "datagram"
	default:
		return "unknown"
	}
}

// Class is the duration bucket a mark+space falls into.
type Class int

const (
	ClassZero Class = iota
	ClassOne
	ClassRepeat
	ClassHeader
	ClassNoise
)

const (
	oneThreshold    = 1600 * time.Microsecond
	gapThreshold    = 2700 * time.Microsecond
	headerThreshold = 12500 * time.Microsecond
	noiseThreshold  = 14500 * time.Microsecond

	// DatagramBits is the widest datagram the decoder accumulates.
	DatagramBits = 64
)

// Classify buckets a mark+space duration.
func Classify(markAndSpace time.Duration) Class {
	switch {
	case markAndSpace < oneThreshold:
		return ClassZero
	case markAndSpace < gapThreshold:
		return ClassOne
	case markAndSpace < headerThreshold:
		return ClassRepeat
	case markAndSpace < noiseThreshold:
		return ClassHeader
	default:
		return ClassNoise
	}
}

// Decoder accumulates NEC bits, most significant first, into datagrams of
// up to 64 bits. A datagram completes either when 64 bits have arrived or
// when a long mark+space follows at least one bit.
type Decoder struct {
	bits     int
	acc      uint64
	datagram uint64
	maxBits  int
}

// Decode feeds one mark+space duration to the decoder.
func (d *Decoder) Decode(markAndSpace time.Duration) Event {
	class := Classify(markAndSpace)
	switch class {
	case ClassZero:
		return d.appendBit(0)
	case ClassOne:
		return d.appendBit(1)
	}

	if d.bits > d.maxBits {
		d.maxBits = d.bits
	}
	if d.bits > 0 {
		d.flush()
		return EventDatagram
	}
	if class == ClassRepeat {
		return EventRepeat
	}
	return EventIncomplete
}

func (d *Decoder) appendBit(bit uint64) Event {
	d.bits++
	d.acc = d.acc<<1 | bit
	if d.bits == DatagramBits {
		d.flush()
		return EventDatagram
	}
	return EventIncomplete
}

func (d *Decoder) flush() {
	d.datagram = d.acc
	d.Reset()
}

// Reset drops any partially received bits. The last datagram is kept.
func (d *Decoder) Reset() {
	d.bits = 0
	d.acc = 0
}

// BitsReceived is the number of bits accumulated toward the next datagram.
func (d *Decoder) BitsReceived() int {
	return d.bits
}

// Datagram is the last completed datagram.
func (d *Decoder) Datagram() uint64 {
	return d.datagram
}

// MaxBits is the most bits ever pending when a long mark+space arrived.
func (d *Decoder) MaxBits() int {
	return d.maxBits
}
