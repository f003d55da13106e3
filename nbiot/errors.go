package nbiot

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has no usable transport.
	//
	// This can occur if initialization failed or if the Modem was not created
	// via New.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when an operation is attempted on a Modem
	// that has already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrExceedsMaxValue is returned when a value is outside the range its
	// wire representation can carry (timer multiples above 31, CoAP URI
	// longer than 200 characters).
	//
	// The violation is detected locally. The modem is never contacted.
	ErrExceedsMaxValue = errors.New("value exceeds maximum")

	// ErrInvalidUnitValue is returned when a PSM timer is encoded with a
	// unit that is not a member of the timer's unit table.
	//
	// The violation is detected locally. The modem is never contacted.
	ErrInvalidUnitValue = errors.New("invalid timer unit")

	// ErrCoapNotConfigured is returned when a CoAP request is attempted
	// before ConfigureCoAP has programmed profile 0.
	ErrCoapNotConfigured = errors.New("CoAP profile not configured")

	// ErrCommandRejected is returned when the modem firmware answers a
	// command with a plain ERROR final result.
	ErrCommandRejected = errors.New("command rejected by modem")

	// ErrMalformedReply is returned when a modem reply cannot be parsed
	// into the expected fixed format.
	ErrMalformedReply = errors.New("malformed modem reply")
)
