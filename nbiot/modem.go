package nbiot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"thingpilot.io/iot/nbiot-gw/at"
)

// Modem is the caller-facing handle to one physical NB-IoT modem reached
// over an injected Transport. It exposes connection management, power-save
// configuration and CoAP exchanges as synchronous, blocking operations.
//
// At most one command may be in flight at a time; concurrent calls queue on
// an internal mutex. There is no background polling and no asynchronous
// callback surface. On a command timeout the channel is left in an unknown
// state and the caller should issue Reboot before further use.
type Modem struct {
	// transport provides the physical connection to the modem
	transport Transport
	// config contains the modem configuration settings
	config Config
	logger *slog.Logger

	// mu serializes commands: the channel is not reentrant
	mu     sync.Mutex
	closed bool

	// tokens carries response lines from the reader goroutine. The reader
	// is the only goroutine that touches the transport's read side.
	tokens  chan string
	readErr chan error

	// coapConfigured records whether CoAP profile 0 has been programmed
	// since construction. Requests are refused until it has. Guarded by mu.
	coapConfigured bool
}

// New creates a new Modem instance with the given configuration.
// It establishes the transport connection and initializes the modem
// hardware (sanity check, echo off, numeric CME errors).
//
// Returns an error if the transport connection or modem initialization
// fails.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if transport == nil {
		return nil, ErrNotInitialized
	}

	m := &Modem{
		transport: transport,
		config:    config,
		logger:    config.Logger,
		tokens:    make(chan string, 64),
		readErr:   make(chan error, 1),
	}
	go m.readLoop()

	initCtx, cancel := context.WithTimeout(ctx, config.InitTimeout)
	defer cancel()

	if err := m.init(initCtx); err != nil {
		transport.Close()
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	return m, nil
}

// Close shuts down the modem and releases the transport. After calling
// Close, the modem cannot be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrAlreadyClosed
	}
	m.closed = true

	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// readLoop is the only reader of the transport. It tokenizes the byte
// stream into response lines and hands them to the command in flight.
// It exits when the transport reports EOF or an error, which happens on
// Close.
func (m *Modem) readLoop() {
	scanner := bufio.NewScanner(m.transport)
	scanner.Split(at.Splitter)

	for scanner.Scan() {
		token := scanner.Text()
		if token == "" {
			continue
		}
		m.tokens <- token
	}
	if err := scanner.Err(); err != nil {
		m.readErr <- err
	}
	close(m.tokens)
}

// init performs the initial setup sequence for the modem hardware:
// wake-up sanity check, echo off (the tokenizer assumes ATE0) and numeric
// +CME ERROR reporting.
func (m *Modem) init(ctx context.Context) error {
	if _, err := m.exec(ctx, at.CmdAt, m.config.ATTimeout); err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}
	if _, err := m.exec(ctx, at.CmdEchoOff, m.config.ATTimeout); err != nil {
		return fmt.Errorf("could not disable echo: %w", err)
	}
	if _, err := m.exec(ctx, at.CmdVerboseErrors, m.config.ATTimeout); err != nil {
		return fmt.Errorf("could not enable CME error codes: %w", err)
	}
	return nil
}

// exec sends one AT command and blocks until a final result line or the
// timeout. It returns the intermediate data lines; the final result line
// is translated through mapReply and never surfaces as data. URCs arriving
// mid-command are logged and discarded.
func (m *Modem) exec(ctx context.Context, cmd string, timeout time.Duration) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrAlreadyClosed
	}
	if m.transport == nil {
		return nil, ErrNotInitialized
	}

	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	m.logger.Debug("sending command", "cmd", cmd)

	wire := strings.TrimSpace(cmd) + "\r"
	if _, err := m.transport.Write([]byte(wire)); err != nil {
		return nil, fmt.Errorf("write command %q: %w", cmd, err)
	}

	var lines []string
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("command %q timeout: %w", cmd, ctx.Err())

		case err := <-m.readErr:
			return nil, fmt.Errorf("read error: %w", err)

		case token, ok := <-m.tokens:
			if !ok {
				return nil, io.EOF
			}

			switch at.Classify(token) {
			case at.TypeURC:
				m.logger.Debug("unsolicited result code", "urc", token)

			case at.TypeData:
				lines = append(lines, token)

			case at.TypeFinal:
				err := mapReply(token)
				m.logger.Debug("command finished", "cmd", cmd, "final", token, "status", StatusOf(err))
				if err != nil {
					return lines, fmt.Errorf("command %q: %w", cmd, err)
				}
				return lines, nil
			}
		}
	}
}

// execOK runs a command that is expected to produce no data lines, only a
// final result.
func (m *Modem) execOK(ctx context.Context, cmd string, timeout time.Duration) error {
	_, err := m.exec(ctx, cmd, timeout)
	return err
}

// singleLine runs a command expected to yield exactly one data line with
// the given prefix and returns the line's payload with the prefix removed.
func (m *Modem) singleLine(ctx context.Context, cmd, prefix string, timeout time.Duration) (string, error) {
	lines, err := m.exec(ctx, cmd, timeout)
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), nil
		}
	}
	return "", fmt.Errorf("%w: no %q line in reply to %q", ErrMalformedReply, prefix, cmd)
}
