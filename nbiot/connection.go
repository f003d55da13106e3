package nbiot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thingpilot.io/iot/nbiot-gw/at"
)

// RegistrationState is the network registration state reported by the
// modem in +CEREG replies. The constant values are the 3GPP <stat> codes.
type RegistrationState int

const (
	NotRegistered       RegistrationState = 0
	RegisteredHome      RegistrationState = 1
	Searching           RegistrationState = 2
	RegistrationDenied  RegistrationState = 3
	RegistrationUnknown RegistrationState = 4
	RegisteredRoaming   RegistrationState = 5
)

// String returns a human-readable string representation of the state.
func (s RegistrationState) String() string {
	switch s {
	case NotRegistered:
		return "NotRegistered"
	case RegisteredHome:
		return "RegisteredHome"
	case Searching:
		return "Searching"
	case RegistrationDenied:
		return "Denied"
	case RegistrationUnknown:
		return "Unknown"
	case RegisteredRoaming:
		return "RegisteredRoaming"
	default:
		return fmt.Sprintf("RegistrationState(%d)", int(s))
	}
}

// ConnectionStatus reports the radio connection and network registration
// state of the modem. It is produced fresh on each query, never cached.
type ConnectionStatus struct {
	RadioConnected bool
	Registration   RegistrationState
}

// Reboot power-cycles the modem and blocks until it accepts commands
// again. On a fatal timeout the channel state is unknown.
func (m *Modem) Reboot(ctx context.Context) error {
	if err := m.execOK(ctx, at.CmdReboot, m.config.RebootTimeout); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	if err := m.waitForReady(ctx); err != nil {
		return err
	}
	// The firmware boots with its factory profile: echo on, verbose CME
	// errors off. Restore the channel discipline the tokenizer assumes.
	if err := m.init(ctx); err != nil {
		return fmt.Errorf("reinitialize after reboot: %w", err)
	}
	return nil
}

// waitForReady polls the modem with a bare AT until it answers OK. After a
// reboot the firmware needs a few seconds before the command interpreter
// comes back.
func (m *Modem) waitForReady(ctx context.Context) error {
	pollInterval := 500 * time.Millisecond
	maxRetries := int(m.config.RebootTimeout / pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for retries := 0; ; {
		select {
		case <-ctx.Done():
			return fmt.Errorf("modem not ready after reboot: %w", ctx.Err())
		case <-ticker.C:
			retries++
			if retries > maxRetries {
				return fmt.Errorf("modem not ready after %d retries", maxRetries)
			}
			err := m.execOK(ctx, at.CmdAt, m.config.ATTimeout)
			if err == nil {
				return nil
			}
			if errors.Is(err, ErrAlreadyClosed) || errors.Is(err, ErrNotInitialized) {
				return fmt.Errorf("readiness check failed: %w", err)
			}
		}
	}
}

// ConnectionStatus queries the modem for its radio connection state
// (+CSCON) and network registration state (+CEREG).
func (m *Modem) ConnectionStatus(ctx context.Context) (ConnectionStatus, error) {
	var status ConnectionStatus

	payload, err := m.singleLine(ctx, "AT+CSCON?", "+CSCON:", m.config.ATTimeout)
	if err != nil {
		return status, err
	}
	var n, mode int
	if _, err := fmt.Sscanf(payload, "%d,%d", &n, &mode); err != nil {
		return status, fmt.Errorf("%w: +CSCON payload %q", ErrMalformedReply, payload)
	}
	status.RadioConnected = mode == 1

	payload, err = m.singleLine(ctx, "AT+CEREG?", "+CEREG:", m.config.ATTimeout)
	if err != nil {
		return status, err
	}
	var stat int
	if _, err := fmt.Sscanf(payload, "%d,%d", &n, &stat); err != nil {
		return status, fmt.Errorf("%w: +CEREG payload %q", ErrMalformedReply, payload)
	}
	if stat < 0 || stat > int(RegisteredRoaming) {
		return status, fmt.Errorf("%w: registration state %d", ErrMalformedReply, stat)
	}
	status.Registration = RegistrationState(stat)

	return status, nil
}

// NUEStats returns the operator-defined UE statistics blob exactly as the
// modem reports it, one line per statistic.
func (m *Modem) NUEStats(ctx context.Context) (string, error) {
	lines, err := m.exec(ctx, "AT+NUESTATS", m.config.ATTimeout)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// setNconfig flips one of the SARA-N2 operator configuration switches.
// The toggles are idempotent from the modem's point of view; repeated
// calls with the same value simply answer OK.
func (m *Modem) setNconfig(ctx context.Context, feature string, enabled bool) error {
	value := "FALSE"
	if enabled {
		value = "TRUE"
	}
	cmd := fmt.Sprintf("AT+NCONFIG=%q,%q", feature, value)
	if err := m.execOK(ctx, cmd, m.config.ATTimeout); err != nil {
		return fmt.Errorf("set %s=%s: %w", feature, value, err)
	}
	return nil
}

// EnableAutoconnect lets the platform attach to the network automatically
// after power-on or reboot, using the SIM PLMN and the network's APN.
func (m *Modem) EnableAutoconnect(ctx context.Context) error {
	return m.setNconfig(ctx, "AUTOCONNECT", true)
}

// DisableAutoconnect disables automatic network attach.
func (m *Modem) DisableAutoconnect(ctx context.Context) error {
	return m.setNconfig(ctx, "AUTOCONNECT", false)
}

// EnableScrambling enables CR_0354_0338 scrambling. This is an operator
// specific setting; confirm with the mobile network provider.
func (m *Modem) EnableScrambling(ctx context.Context) error {
	return m.setNconfig(ctx, "CR_0354_0338_SCRAMBLING", true)
}

// DisableScrambling disables CR_0354_0338 scrambling.
func (m *Modem) DisableScrambling(ctx context.Context) error {
	return m.setNconfig(ctx, "CR_0354_0338_SCRAMBLING", false)
}

// EnableSIAvoid enables the scheduling of conflicted NSIB. This is an
// operator specific setting; confirm with the mobile network provider.
func (m *Modem) EnableSIAvoid(ctx context.Context) error {
	return m.setNconfig(ctx, "CR_0859_SI_AVOID", true)
}

// DisableSIAvoid disables the scheduling of conflicted NSIB.
func (m *Modem) DisableSIAvoid(ctx context.Context) error {
	return m.setNconfig(ctx, "CR_0859_SI_AVOID", false)
}

// EnableCombineAttach enables combined EPS/IMSI network attach.
func (m *Modem) EnableCombineAttach(ctx context.Context) error {
	return m.setNconfig(ctx, "COMBINE_ATTACH", true)
}

// DisableCombineAttach disables combined EPS/IMSI network attach.
func (m *Modem) DisableCombineAttach(ctx context.Context) error {
	return m.setNconfig(ctx, "COMBINE_ATTACH", false)
}

// EnableCellReselection enables RRC cell reselection.
func (m *Modem) EnableCellReselection(ctx context.Context) error {
	return m.setNconfig(ctx, "CELL_RESELECTION", true)
}

// DisableCellReselection disables RRC cell reselection.
func (m *Modem) DisableCellReselection(ctx context.Context) error {
	return m.setNconfig(ctx, "CELL_RESELECTION", false)
}

// EnableBIP enables the Bearer Independent Protocol, the interface between
// the SIM and the ME giving the SIM access to the ME's data bearers.
func (m *Modem) EnableBIP(ctx context.Context) error {
	return m.setNconfig(ctx, "ENABLE_BIP", true)
}

// DisableBIP disables the Bearer Independent Protocol.
func (m *Modem) DisableBIP(ctx context.Context) error {
	return m.setNconfig(ctx, "ENABLE_BIP", false)
}
