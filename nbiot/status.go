package nbiot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"thingpilot.io/iot/nbiot-gw/at"
)

// Status is the closed set of result codes reported to callers. The numeric
// values are stable and match the codes the modem firmware contract uses,
// so they may be logged or put on the wire.
type Status int

const (
	// StatusError covers every channel-level failure: timeouts, malformed
	// replies and firmware command rejections.
	StatusError Status = -1
	// StatusOK indicates the operation completed and any outputs are valid.
	StatusOK Status = 0
	// StatusDriverUnknown indicates no usable modem channel is present.
	StatusDriverUnknown Status = 60
	// StatusExceedsMaxValue indicates a local bound violation (timer
	// multiples above 31, URI above 200 characters).
	StatusExceedsMaxValue Status = 61
	// StatusInvalidUnitValue indicates a timer unit outside its table.
	StatusInvalidUnitValue Status = 62
)

// String returns a human-readable string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusDriverUnknown:
		return "DriverUnknown"
	case StatusExceedsMaxValue:
		return "ExceedsMaxValue"
	case StatusInvalidUnitValue:
		return "InvalidUnitValue"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StatusOf translates an error returned by any Modem operation into its
// stable result code. A nil error is StatusOK.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNoDialer), errors.Is(err, ErrNotInitialized):
		return StatusDriverUnknown
	case errors.Is(err, ErrExceedsMaxValue):
		return StatusExceedsMaxValue
	case errors.Is(err, ErrInvalidUnitValue):
		return StatusInvalidUnitValue
	default:
		return StatusError
	}
}

// CMEError is a firmware-reported command failure carrying the numeric
// +CME ERROR code from the reply. It maps to StatusError; the code is
// preserved for logging and diagnostics only.
type CMEError struct {
	Code int
}

func (e *CMEError) Error() string {
	return fmt.Sprintf("+CME ERROR: %d", e.Code)
}

// mapReply translates the final result line of a channel reply into an
// error. Every component consults this after issuing a command; no
// component interprets final result text itself.
func mapReply(final string) error {
	switch {
	case final == at.OK:
		return nil
	case final == at.ERROR:
		return ErrCommandRejected
	case strings.HasPrefix(final, at.CmeError):
		code, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(final, at.CmeError)))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrMalformedReply, final)
		}
		return &CMEError{Code: code}
	default:
		return fmt.Errorf("%w: %q", ErrMalformedReply, final)
	}
}
