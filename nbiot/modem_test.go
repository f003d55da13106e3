package nbiot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"thingpilot.io/iot/nbiot-gw/nbiot"
)

// transportDialer hands a pre-built transport to the modem, the test
// equivalent of opening a serial port.
type transportDialer struct {
	transport nbiot.Transport
}

func (d transportDialer) Dial(ctx context.Context) (nbiot.Transport, error) {
	return d.transport, nil
}

// initSteps is the scripted conversation every successful construction
// performs: sanity check, echo off, numeric CME errors.
func initSteps() []nbiot.Step {
	return []nbiot.Step{
		{Expect: "AT\r", Reply: "OK\r\n"},
		{Expect: "ATE0\r", Reply: "OK\r\n"},
		{Expect: "AT+CMEE=1\r", Reply: "OK\r\n"},
	}
}

// newTestModem builds a modem over a scripted transport. The init sequence
// is prepended to the given steps.
func newTestModem(t *testing.T, steps ...nbiot.Step) (*nbiot.Modem, *nbiot.TestTransport) {
	t.Helper()

	transport := nbiot.NewTestTransport(append(initSteps(), steps...)...)
	config, err := nbiot.NewConfigBuilder().
		WithDialer(transportDialer{transport: transport}).
		WithATTimeout(2 * time.Second).
		WithCoapTimeout(2 * time.Second).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := nbiot.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	return m, transport
}

func TestModemNew(t *testing.T) {
	t.Run("Initialization success", func(t *testing.T) {
		m, transport := newTestModem(t)

		if m == nil {
			t.Fatal("New() should return valid modem on success")
		}
		writes := transport.Writes()
		if len(writes) != 3 {
			t.Fatalf("expected 3 init commands, got %d: %v", len(writes), writes)
		}
		if writes[0] != "AT\r" || writes[1] != "ATE0\r" || writes[2] != "AT+CMEE=1\r" {
			t.Errorf("unexpected init sequence: %v", writes)
		}
	})

	t.Run("Initialization failure when modem rejects setup", func(t *testing.T) {
		transport := nbiot.NewTestTransport(
			nbiot.Step{Expect: "AT\r", Reply: "OK\r\n"},
			nbiot.Step{Expect: "ATE0\r", Reply: "ERROR\r\n"},
		)
		config, err := nbiot.NewConfigBuilder().
			WithDialer(transportDialer{transport: transport}).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		m, err := nbiot.New(context.Background(), config)
		if err == nil {
			t.Error("expected error when init command is rejected")
		}
		if m != nil {
			t.Error("New() should return nil modem when init fails")
		}
	})

	t.Run("Dialer error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDialer := nbiot.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, errors.New("connection failed"))

		config, err := nbiot.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		m, err := nbiot.New(context.Background(), config)
		if err == nil {
			t.Error("expected error from dialer failure")
		}
		if m != nil {
			t.Error("New() should return nil modem when dialer fails")
		}
	})

	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		m, err := nbiot.New(context.Background(), nbiot.Config{})
		if !errors.Is(err, nbiot.ErrNoDialer) {
			t.Errorf("expected ErrNoDialer from New(), got: %v", err)
		}
		if m != nil {
			t.Error("New() should return nil modem when no dialer provided")
		}
		if nbiot.StatusOf(err) != nbiot.StatusDriverUnknown {
			t.Errorf("expected StatusDriverUnknown, got: %v", nbiot.StatusOf(err))
		}
	})

	t.Run("ErrNotInitialized on nil transport", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockDialer := nbiot.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial(gomock.Any()).Return(nil, nil)

		config, err := nbiot.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		_, err = nbiot.New(context.Background(), config)
		if !errors.Is(err, nbiot.ErrNotInitialized) {
			t.Errorf("expected ErrNotInitialized from New(), got: %v", err)
		}
	})
}

func TestModemClose(t *testing.T) {
	t.Run("ErrAlreadyClosed on double close", func(t *testing.T) {
		m, _ := newTestModem(t)

		if err := m.Close(); err != nil {
			t.Errorf("first close should succeed, got error: %v", err)
		}
		if err := m.Close(); !errors.Is(err, nbiot.ErrAlreadyClosed) {
			t.Errorf("expected ErrAlreadyClosed on second close, got: %v", err)
		}
	})

	t.Run("Operations fail after close", func(t *testing.T) {
		m, _ := newTestModem(t)

		if err := m.Close(); err != nil {
			t.Fatalf("unexpected error from Close(): %v", err)
		}

		err := m.EnableAutoconnect(context.Background())
		if !errors.Is(err, nbiot.ErrAlreadyClosed) {
			t.Errorf("expected ErrAlreadyClosed, got: %v", err)
		}
	})
}

func TestModemCommandTimeout(t *testing.T) {
	// A step with no reply leaves the command hanging until the per-command
	// timeout elapses. The channel is in an unknown state afterwards; the
	// caller's recovery path is Reboot.
	transport := nbiot.NewTestTransport(append(initSteps(),
		nbiot.Step{Expect: "AT+CSCON?\r"},
	)...)
	config, err := nbiot.NewConfigBuilder().
		WithDialer(transportDialer{transport: transport}).
		WithATTimeout(50 * time.Millisecond).
		Build()
	if err != nil {
		t.Fatalf("unexpected error from Build(): %v", err)
	}

	m, err := nbiot.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create modem: %v", err)
	}
	defer m.Close()

	_, err = m.ConnectionStatus(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got: %v", err)
	}
	if nbiot.StatusOf(err) != nbiot.StatusError {
		t.Errorf("expected StatusError, got: %v", nbiot.StatusOf(err))
	}
}

func TestModemIgnoresURCsDuringCommand(t *testing.T) {
	// A +NPSMR URC arriving in the middle of a reply must not disturb the
	// command in flight.
	m, _ := newTestModem(t, nbiot.Step{
		Expect: "AT+CSCON?\r",
		Reply:  "+NPSMR:1\r\n+CSCON: 0,1\r\nOK\r\n",
	}, nbiot.Step{
		Expect: "AT+CEREG?\r",
		Reply:  "+CEREG: 0,1\r\nOK\r\n",
	})

	status, err := m.ConnectionStatus(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !status.RadioConnected {
		t.Error("expected radio connected")
	}
}
