package nbiot

import (
	"context"
	"fmt"
	"strings"
)

// The PSM configuration lives only in modem firmware and is re-read on
// demand; nothing here caches it. AT+CPSMS carries both requested timers
// in one command, so setting a single timer reads the current pair back
// first and rewrites both.

// EnablePowerSaveMode enables the whole-module PSM feature flag.
func (m *Modem) EnablePowerSaveMode(ctx context.Context) error {
	return m.execOK(ctx, "AT+CPSMS=1", m.config.ATTimeout)
}

// DisablePowerSaveMode disables the whole-module PSM feature flag.
func (m *Modem) DisablePowerSaveMode(ctx context.Context) error {
	return m.execOK(ctx, "AT+CPSMS=0", m.config.ATTimeout)
}

// PowerSaveMode reads back the current PSM feature flag.
func (m *Modem) PowerSaveMode(ctx context.Context) (bool, error) {
	enabled, _, _, err := m.readPsmConfig(ctx)
	return enabled, err
}

// EnableSIMPowerSaveMode powers the SIM only while it is being accessed,
// un-powering it when not required (i.e. in PSM). Independent of the
// module PSM flag.
func (m *Modem) EnableSIMPowerSaveMode(ctx context.Context) error {
	return m.setNconfig(ctx, "NAS_SIM_POWER_SAVING_ENABLE", true)
}

// DisableSIMPowerSaveMode disables SIM power gating.
func (m *Modem) DisableSIMPowerSaveMode(ctx context.Context) error {
	return m.setNconfig(ctx, "NAS_SIM_POWER_SAVING_ENABLE", false)
}

// SetTAUTimer requests a new T3412 (periodic TAU) timer. Encoding failures
// are reported without contacting the modem.
func (m *Modem) SetTAUTimer(ctx context.Context, unit T3412Unit, multiples uint8) error {
	octet, err := EncodeT3412(unit, multiples)
	if err != nil {
		return err
	}
	_, _, active, err := m.readPsmConfig(ctx)
	if err != nil {
		return err
	}
	return m.writePsmTimers(ctx, octet.BitString(), active)
}

// SetActiveTime requests a new T3324 (active) timer. Encoding failures are
// reported without contacting the modem.
func (m *Modem) SetActiveTime(ctx context.Context, unit T3324Unit, multiples uint8) error {
	octet, err := EncodeT3324(unit, multiples)
	if err != nil {
		return err
	}
	_, tau, _, err := m.readPsmConfig(ctx)
	if err != nil {
		return err
	}
	return m.writePsmTimers(ctx, tau, octet.BitString())
}

// TAUTimerBits returns the T3412 timer exactly as the firmware reports it:
// an 8-character bit string.
func (m *Modem) TAUTimerBits(ctx context.Context) (string, error) {
	_, tau, _, err := m.readPsmConfig(ctx)
	return tau, err
}

// TAUTimer returns the decoded T3412 timer. A unit of T3412Invalid is not
// an error; it signals a firmware/table mismatch the caller must handle.
func (m *Modem) TAUTimer(ctx context.Context) (T3412Unit, uint8, error) {
	bits, err := m.TAUTimerBits(ctx)
	if err != nil {
		return T3412Invalid, 0, err
	}
	octet, err := ParseTimerBits(bits)
	if err != nil {
		return T3412Invalid, 0, err
	}
	unit, multiples := DecodeT3412(octet)
	return unit, multiples, nil
}

// ActiveTimeBits returns the T3324 timer exactly as the firmware reports
// it: an 8-character bit string.
func (m *Modem) ActiveTimeBits(ctx context.Context) (string, error) {
	_, _, active, err := m.readPsmConfig(ctx)
	return active, err
}

// ActiveTime returns the decoded T3324 timer. A unit of T3324Invalid is
// not an error; it signals a firmware/table mismatch the caller must
// handle.
func (m *Modem) ActiveTime(ctx context.Context) (T3324Unit, uint8, error) {
	bits, err := m.ActiveTimeBits(ctx)
	if err != nil {
		return T3324Invalid, 0, err
	}
	octet, err := ParseTimerBits(bits)
	if err != nil {
		return T3324Invalid, 0, err
	}
	unit, multiples := DecodeT3324(octet)
	return unit, multiples, nil
}

// readPsmConfig queries AT+CPSMS? and returns the PSM flag plus the two
// requested timer bit strings.
//
// Reply shape: +CPSMS: <mode>,,,"<tau bits>","<active bits>"
// (the two skipped fields are the GERAN RAU and READY timers, unused on
// NB-IoT).
func (m *Modem) readPsmConfig(ctx context.Context) (enabled bool, tau, active string, err error) {
	payload, err := m.singleLine(ctx, "AT+CPSMS?", "+CPSMS:", m.config.ATTimeout)
	if err != nil {
		return false, "", "", err
	}

	fields := strings.Split(payload, ",")
	if len(fields) != 5 {
		return false, "", "", fmt.Errorf("%w: +CPSMS payload %q", ErrMalformedReply, payload)
	}

	switch strings.TrimSpace(fields[0]) {
	case "0":
	case "1":
		enabled = true
	default:
		return false, "", "", fmt.Errorf("%w: +CPSMS mode %q", ErrMalformedReply, fields[0])
	}

	tau = strings.Trim(fields[3], `"`)
	active = strings.Trim(fields[4], `"`)
	if len(tau) != 8 || len(active) != 8 {
		return false, "", "", fmt.Errorf("%w: +CPSMS timers %q,%q", ErrMalformedReply, fields[3], fields[4])
	}
	return enabled, tau, active, nil
}

// writePsmTimers programs both requested timers in one AT+CPSMS command.
func (m *Modem) writePsmTimers(ctx context.Context, tau, active string) error {
	cmd := fmt.Sprintf("AT+CPSMS=1,,,%q,%q", tau, active)
	return m.execOK(ctx, cmd, m.config.ATTimeout)
}
