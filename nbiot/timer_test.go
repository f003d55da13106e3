package nbiot_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"thingpilot.io/iot/nbiot-gw/nbiot"
)

func TestEncodeT3412(t *testing.T) {
	tests := []struct {
		name      string
		unit      nbiot.T3412Unit
		multiples uint8
		bits      string
	}{
		{name: "10 minute unit", unit: nbiot.T3412Min10, multiples: 5, bits: "00000101"},
		{name: "1 hour unit", unit: nbiot.T3412Hr1, multiples: 0, bits: "00100000"},
		{name: "10 hour unit", unit: nbiot.T3412Hr10, multiples: 31, bits: "01011111"},
		{name: "2 second unit", unit: nbiot.T3412Sec2, multiples: 1, bits: "01100001"},
		{name: "30 second unit", unit: nbiot.T3412Sec30, multiples: 2, bits: "10000010"},
		{name: "1 minute unit", unit: nbiot.T3412Min1, multiples: 10, bits: "10101010"},
		{name: "320 hour unit", unit: nbiot.T3412Hr320, multiples: 1, bits: "11000001"},
		{name: "deactivated", unit: nbiot.T3412Deact, multiples: 31, bits: "11111111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			octet, err := nbiot.EncodeT3412(tt.unit, tt.multiples)
			require.NoError(t, err)
			assert.Equal(t, tt.bits, octet.BitString())
		})
	}
}

func TestEncodeT3324(t *testing.T) {
	tests := []struct {
		name      string
		unit      nbiot.T3324Unit
		multiples uint8
		bits      string
	}{
		{name: "2 second unit", unit: nbiot.T3324Sec2, multiples: 30, bits: "00011110"},
		{name: "1 minute unit", unit: nbiot.T3324Min1, multiples: 1, bits: "00100001"},
		{name: "6 minute unit", unit: nbiot.T3324Min6, multiples: 3, bits: "01000011"},
		{name: "deactivated", unit: nbiot.T3324Deact, multiples: 0, bits: "11100000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			octet, err := nbiot.EncodeT3324(tt.unit, tt.multiples)
			require.NoError(t, err)
			assert.Equal(t, tt.bits, octet.BitString())
		})
	}
}

func TestEncodeRejectsOutOfRangeMultiples(t *testing.T) {
	for _, unit := range []nbiot.T3412Unit{
		nbiot.T3412Min10, nbiot.T3412Hr1, nbiot.T3412Hr10, nbiot.T3412Sec2,
		nbiot.T3412Sec30, nbiot.T3412Min1, nbiot.T3412Hr320, nbiot.T3412Deact,
	} {
		_, err := nbiot.EncodeT3412(unit, 32)
		assert.ErrorIs(t, err, nbiot.ErrExceedsMaxValue, "T3412 unit %v", unit)
	}

	for _, unit := range []nbiot.T3324Unit{
		nbiot.T3324Sec2, nbiot.T3324Min1, nbiot.T3324Min6, nbiot.T3324Deact,
	} {
		_, err := nbiot.EncodeT3324(unit, 32)
		assert.ErrorIs(t, err, nbiot.ErrExceedsMaxValue, "T3324 unit %v", unit)
	}
}

func TestEncodeRejectsInvalidUnit(t *testing.T) {
	_, err := nbiot.EncodeT3412(nbiot.T3412Invalid, 0)
	assert.ErrorIs(t, err, nbiot.ErrInvalidUnitValue)

	_, err = nbiot.EncodeT3324(nbiot.T3324Invalid, 0)
	assert.ErrorIs(t, err, nbiot.ErrInvalidUnitValue)

	// Codes outside the assigned T3324 table are not valid encode inputs
	// either, even though they fit in three bits.
	for _, unit := range []nbiot.T3324Unit{0b011, 0b100, 0b101, 0b110} {
		_, err := nbiot.EncodeT3324(unit, 0)
		assert.ErrorIs(t, err, nbiot.ErrInvalidUnitValue, "unit code %03b", unit)
	}
}

func TestTimerRoundTrip(t *testing.T) {
	t3412Units := []nbiot.T3412Unit{
		nbiot.T3412Min10, nbiot.T3412Hr1, nbiot.T3412Hr10, nbiot.T3412Sec2,
		nbiot.T3412Sec30, nbiot.T3412Min1, nbiot.T3412Hr320, nbiot.T3412Deact,
	}
	for _, unit := range t3412Units {
		for multiples := uint8(0); multiples <= 31; multiples++ {
			octet, err := nbiot.EncodeT3412(unit, multiples)
			require.NoError(t, err)

			gotUnit, gotMultiples := nbiot.DecodeT3412(octet)
			assert.Equal(t, unit, gotUnit)
			assert.Equal(t, multiples, gotMultiples)
		}
	}

	t3324Units := []nbiot.T3324Unit{
		nbiot.T3324Sec2, nbiot.T3324Min1, nbiot.T3324Min6, nbiot.T3324Deact,
	}
	for _, unit := range t3324Units {
		for multiples := uint8(0); multiples <= 31; multiples++ {
			octet, err := nbiot.EncodeT3324(unit, multiples)
			require.NoError(t, err)

			gotUnit, gotMultiples := nbiot.DecodeT3324(octet)
			assert.Equal(t, unit, gotUnit)
			assert.Equal(t, multiples, gotMultiples)
		}
	}
}

func TestDecodeDeactivated(t *testing.T) {
	// Unit code 111 is DEACT in both tables.
	octet, err := nbiot.ParseTimerBits("11111111")
	require.NoError(t, err)

	tauUnit, tauMultiples := nbiot.DecodeT3412(octet)
	assert.Equal(t, nbiot.T3412Deact, tauUnit)
	assert.Equal(t, uint8(31), tauMultiples)

	activeUnit, activeMultiples := nbiot.DecodeT3324(octet)
	assert.Equal(t, nbiot.T3324Deact, activeUnit)
	assert.Equal(t, uint8(31), activeMultiples)
}

func TestDecodeT3324UnassignedCodes(t *testing.T) {
	// Only four of the eight 3-bit codes are assigned for T3324. The other
	// four decode to the INVALID sentinel; the multiplier is still
	// extracted.
	for _, code := range []uint8{0b011, 0b100, 0b101, 0b110} {
		octet := nbiot.TimerOctet(code<<5 | 0b01001)
		unit, multiples := nbiot.DecodeT3324(octet)
		assert.Equal(t, nbiot.T3324Invalid, unit, "unit code %03b", code)
		assert.Equal(t, uint8(9), multiples, "unit code %03b", code)
	}
}

func TestParseTimerBits(t *testing.T) {
	octet, err := nbiot.ParseTimerBits("01000011")
	require.NoError(t, err)
	assert.Equal(t, nbiot.TimerOctet(0b01000011), octet)

	for _, s := range []string{"", "0100001", "010000111", "0100001x"} {
		_, err := nbiot.ParseTimerBits(s)
		assert.Error(t, err, "input %q", s)
		assert.True(t, errors.Is(err, nbiot.ErrMalformedReply), "input %q", s)
	}
}
