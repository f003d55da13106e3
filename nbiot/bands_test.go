package nbiot_test

import (
	"testing"

	"thingpilot.io/iot/nbiot-gw/nbiot"
)

func TestEarfcnBand(t *testing.T) {
	tests := []struct {
		earfcn int
		band   int
		ok     bool
	}{
		{nbiot.EarfcnB8Low, 8, true},
		{nbiot.EarfcnB8High, 8, true},
		{3600, 8, true},
		{nbiot.EarfcnB20Low, 20, true},
		{nbiot.EarfcnB20High, 20, true},
		{6300, 20, true},
		{nbiot.EarfcnB8Low - 1, 0, false},
		{nbiot.EarfcnB8High + 1, 0, false},
		{nbiot.EarfcnB20High + 1, 0, false},
		{0, 0, false},
	}

	for _, tt := range tests {
		band, ok := nbiot.EarfcnBand(tt.earfcn)
		if band != tt.band || ok != tt.ok {
			t.Errorf("EarfcnBand(%d) = (%d, %v), expected (%d, %v)",
				tt.earfcn, band, ok, tt.band, tt.ok)
		}
	}
}
