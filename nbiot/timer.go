package nbiot

import (
	"fmt"
)

// The 3GPP TS 24.008 PSM timers (T3412 "periodic TAU" and T3324 "active
// time") travel as a single octet: a 3-bit unit code in the high bits
// concatenated with a 5-bit multiplier in the low bits. The SARA-N2
// firmware exchanges this octet as an 8-character string of '0'/'1'
// characters, most-significant bit first. Getting the bit order or the
// code tables wrong silently changes device power consumption in the
// field, so the codec lives here, pure and channel-free.

// TimerOctet is the wire representation of a PSM timer value.
type TimerOctet uint8

// maxTimerMultiples is the largest multiplier the 5-bit field can carry.
const maxTimerMultiples = 31

// T3412Unit is the unit table for the periodic TAU timer. The constant
// values are the 3-bit wire codes.
type T3412Unit uint8

const (
	T3412Min10 T3412Unit = 0b000
	T3412Hr1   T3412Unit = 0b001
	T3412Hr10  T3412Unit = 0b010
	T3412Sec2  T3412Unit = 0b011
	T3412Sec30 T3412Unit = 0b100
	T3412Min1  T3412Unit = 0b101
	T3412Hr320 T3412Unit = 0b110
	T3412Deact T3412Unit = 0b111
	// T3412Invalid is the decode-failure sentinel. It has no wire form and
	// is never a valid encode input.
	T3412Invalid T3412Unit = 0xFF
)

// String returns a human-readable string representation of the unit.
func (u T3412Unit) String() string {
	switch u {
	case T3412Min10:
		return "10min"
	case T3412Hr1:
		return "1h"
	case T3412Hr10:
		return "10h"
	case T3412Sec2:
		return "2s"
	case T3412Sec30:
		return "30s"
	case T3412Min1:
		return "1min"
	case T3412Hr320:
		return "320h"
	case T3412Deact:
		return "deactivated"
	default:
		return "invalid"
	}
}

// T3324Unit is the unit table for the active timer. The constant values
// are the 3-bit wire codes. Only four of the eight codes are assigned.
type T3324Unit uint8

const (
	T3324Sec2  T3324Unit = 0b000
	T3324Min1  T3324Unit = 0b001
	T3324Min6  T3324Unit = 0b010
	T3324Deact T3324Unit = 0b111
	// T3324Invalid is the decode-failure sentinel. It has no wire form and
	// is never a valid encode input.
	T3324Invalid T3324Unit = 0xFF
)

// String returns a human-readable string representation of the unit.
func (u T3324Unit) String() string {
	switch u {
	case T3324Sec2:
		return "2s"
	case T3324Min1:
		return "1min"
	case T3324Min6:
		return "6min"
	case T3324Deact:
		return "deactivated"
	default:
		return "invalid"
	}
}

// EncodeT3412 composes the wire octet for a periodic TAU timer value.
// It fails with ErrExceedsMaxValue if multiples does not fit the 5-bit
// field and with ErrInvalidUnitValue if unit is not a table member.
func EncodeT3412(unit T3412Unit, multiples uint8) (TimerOctet, error) {
	if multiples > maxTimerMultiples {
		return 0, fmt.Errorf("T3412 multiples %d: %w", multiples, ErrExceedsMaxValue)
	}
	if unit > T3412Deact {
		return 0, fmt.Errorf("T3412 unit %d: %w", unit, ErrInvalidUnitValue)
	}
	return TimerOctet(uint8(unit)<<5 | multiples), nil
}

// DecodeT3412 splits a wire octet into its periodic TAU unit and
// multiplier. All eight 3-bit codes are assigned in the T3412 table, so
// the unit is never T3412Invalid; the signature mirrors DecodeT3324.
func DecodeT3412(octet TimerOctet) (T3412Unit, uint8) {
	return T3412Unit(octet >> 5), uint8(octet) & maxTimerMultiples
}

// EncodeT3324 composes the wire octet for an active-time value.
// It fails with ErrExceedsMaxValue if multiples does not fit the 5-bit
// field and with ErrInvalidUnitValue if unit is not a table member.
func EncodeT3324(unit T3324Unit, multiples uint8) (TimerOctet, error) {
	if multiples > maxTimerMultiples {
		return 0, fmt.Errorf("T3324 multiples %d: %w", multiples, ErrExceedsMaxValue)
	}
	switch unit {
	case T3324Sec2, T3324Min1, T3324Min6, T3324Deact:
		return TimerOctet(uint8(unit)<<5 | multiples), nil
	default:
		return 0, fmt.Errorf("T3324 unit %d: %w", unit, ErrInvalidUnitValue)
	}
}

// DecodeT3324 splits a wire octet into its active-time unit and
// multiplier. A code outside the table decodes to T3324Invalid rather
// than an error; the multiplier is still extracted. Callers detecting
// T3324Invalid are seeing a firmware/table mismatch.
func DecodeT3324(octet TimerOctet) (T3324Unit, uint8) {
	unit := T3324Unit(octet >> 5)
	switch unit {
	case T3324Sec2, T3324Min1, T3324Min6, T3324Deact:
		return unit, uint8(octet) & maxTimerMultiples
	default:
		return T3324Invalid, uint8(octet) & maxTimerMultiples
	}
}

// BitString renders the octet the way the firmware transmits it: eight
// '0'/'1' characters, most-significant bit first.
func (o TimerOctet) BitString() string {
	var b [8]byte
	for i := 0; i < 8; i++ {
		if o&(1<<(7-i)) != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b[:])
}

// ParseTimerBits parses the firmware's 8-character bit string back into
// a wire octet.
func ParseTimerBits(s string) (TimerOctet, error) {
	if len(s) != 8 {
		return 0, fmt.Errorf("%w: timer bit string %q", ErrMalformedReply, s)
	}
	var o TimerOctet
	for i := 0; i < 8; i++ {
		switch s[i] {
		case '1':
			o |= 1 << (7 - i)
		case '0':
		default:
			return 0, fmt.Errorf("%w: timer bit string %q", ErrMalformedReply, s)
		}
	}
	return o, nil
}
