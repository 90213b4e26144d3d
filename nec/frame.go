package nec

import (
	"encoding/binary"

	"github.com/sparques/irnec"
)

// Frame is one NEC transmission: header, Len payload bits most significant
// first, then a trailing mark. The payload is the low Len bits of Data read
// as a big-endian number.
type Frame struct {
	Timing Timing
	Data   []byte
	Len    int
}

// NewFrame32 returns the frame for a 32 bit code.
func NewFrame32(t Timing, code uint32) Frame {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, code)
	return Frame{Timing: t, Data: data, Len: 32}
}

func (f Frame) bit(i int) bool {
	// i counts from the least significant bit
	idx := len(f.Data) - 1 - i/8
	if idx < 0 {
		return false
	}
	return f.Data[idx]&(1<<(i%8)) != 0
}

func (f Frame) MarshalFrame() []irnec.TimePair {
	out := make([]irnec.TimePair, 0, f.Len+2)
	out = append(out, irnec.TimePair{f.Timing.HeaderMark, f.Timing.HeaderSpace})

	for i := f.Len - 1; i >= 0; i-- {
		if f.bit(i) {
			out = append(out, irnec.TimePair{f.Timing.BitMark, f.Timing.OneSpace})
		} else {
			out = append(out, irnec.TimePair{f.Timing.BitMark, f.Timing.ZeroSpace})
		}
	}

	// end of transmission
	out = append(out, irnec.TimePair{f.Timing.BitMark, 0})
	return out
}

// RepeatFrame is the short code a remote sends while a button stays held.
type RepeatFrame struct {
	Timing Timing
}

func (rf RepeatFrame) MarshalFrame() []irnec.TimePair {
	return []irnec.TimePair{
		{rf.Timing.HeaderMark, rf.Timing.RepeatSpace},
		{rf.Timing.BitMark, 0},
	}
}
