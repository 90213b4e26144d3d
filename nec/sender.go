package nec

import (
	"github.com/sparques/irnec"
)

// Sender emits NEC frames on a calibrated TxDevice. Every send blocks for
// the whole pulse train.
type Sender struct {
	tx     *irnec.TxDevice
	timing Timing
}

func NewSender(tx *irnec.TxDevice) *Sender {
	return &Sender{
		tx:     tx,
		timing: CorrectedTiming(tx.Correction()),
	}
}

// Timing returns the corrected timings the sender uses.
func (s *Sender) Timing() Timing {
	return s.timing
}

// Send transmits a 32 bit code given as "0x" plus 8 hex digits, e.g.
// 0x00FF02FD. Anything else is silently ignored.
func (s *Sender) Send(hex32 string) {
	code, err := ParseCode(hex32)
	if err != nil {
		return
	}
	s.tx.SendFrame(NewFrame32(s.timing, code))
}

// SendLong transmits a hex code of any length, 4 bits per digit. No
// inverse bytes are checked or added. Malformed input is silently ignored.
func (s *Sender) SendLong(hex string) {
	data, bits, err := ParseLong(hex)
	if err != nil {
		return
	}
	s.tx.SendFrame(Frame{Timing: s.timing, Data: data, Len: bits})
}

// SendCommand transmits an 8 bit address and command.
func (s *Sender) SendCommand(address, command byte) {
	s.Send(FormatCode(address, command))
}

// SendRepeat transmits a repeat code. The caller keeps the 108ms cadence.
func (s *Sender) SendRepeat() {
	s.tx.SendFrame(RepeatFrame{Timing: s.timing})
}
