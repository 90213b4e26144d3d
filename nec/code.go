package nec

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedCode is returned when a hex code can't be parsed.
	ErrMalformedCode = errors.New("malformed IR code")
)

// FormatCode builds the 32 bit NEC code for an 8 bit address and command.
// Each byte is followed by its inverse: 0xAA~AACC~CC.
func FormatCode(address, command byte) string {
	addrSection := uint16(address)<<8 | uint16(^address)
	cmdSection := uint16(command)<<8 | uint16(^command)
	return fmt.Sprintf("0x%04X%04X", addrSection, cmdSection)
}

// SplitCode breaks a 32 bit code into address and command and reports
// whether both carry their inverse.
func SplitCode(code uint32) (address, command byte, valid bool) {
	address = byte(code >> 24)
	invAddress := byte(code >> 16)
	command = byte(code >> 8)
	invCommand := byte(code)
	valid = address == ^invAddress && command == ^invCommand
	return
}

func trimHexPrefix(s string) (string, bool) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:], true
	}
	return s, false
}

// ParseCode parses a 32 bit code written as "0x" followed by exactly 8 hex digits.
func ParseCode(s string) (uint32, error) {
	digits, ok := trimHexPrefix(s)
	if !ok || len(digits) != 8 {
		return 0, fmt.Errorf("%w: %q is not 0x plus 8 hex digits", ErrMalformedCode, s)
	}
	code, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedCode, err)
	}
	return uint32(code), nil
}

// ParseLong parses a "0x" prefixed hex code of any length. Each digit
// carries 4 bits, so the frame is 4 bits per digit wide. The data is
// returned big-endian, left padded to whole bytes.
func ParseLong(s string) (data []byte, bits int, err error) {
	digits, ok := trimHexPrefix(s)
	if !ok || len(digits) == 0 {
		return nil, 0, fmt.Errorf("%w: %q has no hex digits", ErrMalformedCode, s)
	}
	bits = len(digits) * 4
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	data, err = hex.DecodeString(digits)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedCode, err)
	}
	return data, bits, nil
}

// FormatDatagram renders a received datagram the way Receiver.Datagram
// reports it: uppercase hex without leading zeros, or 0x00000000 if empty.
func FormatDatagram(datagram uint64) string {
	if datagram == 0 {
		return "0x00000000"
	}
	return "0x" + strings.ToUpper(strconv.FormatUint(datagram, 16))
}
