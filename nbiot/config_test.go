package nbiot_test

import (
	"testing"
	"time"

	"thingpilot.io/iot/nbiot-gw/nbiot"
)

func TestConfig(t *testing.T) {
	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		_, err := nbiot.NewConfigBuilder().Build()

		if err != nbiot.ErrNoDialer {
			t.Errorf("expected ErrNoDialer, got: %v", err)
		}
	})

	t.Run("Defaults applied", func(t *testing.T) {
		config, err := nbiot.NewConfigBuilder().
			WithDialer(nbiot.SerialDialer{PortName: "/dev/ttyUSB0"}).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.ATTimeout != 5*time.Second {
			t.Errorf("unexpected AT timeout: %v", config.ATTimeout)
		}
		if config.RebootTimeout != 60*time.Second {
			t.Errorf("unexpected reboot timeout: %v", config.RebootTimeout)
		}
		if config.CoapTimeout != 20*time.Second {
			t.Errorf("unexpected CoAP timeout: %v", config.CoapTimeout)
		}
		if config.Logger == nil {
			t.Error("expected a default logger")
		}
	})

	t.Run("Explicit timeouts preserved", func(t *testing.T) {
		config, err := nbiot.NewConfigBuilder().
			WithDialer(nbiot.SerialDialer{PortName: "/dev/ttyUSB0"}).
			WithATTimeout(time.Second).
			WithRebootTimeout(2 * time.Minute).
			WithCoapTimeout(10 * time.Second).
			WithInitTimeout(15 * time.Second).
			Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.ATTimeout != time.Second {
			t.Errorf("unexpected AT timeout: %v", config.ATTimeout)
		}
		if config.RebootTimeout != 2*time.Minute {
			t.Errorf("unexpected reboot timeout: %v", config.RebootTimeout)
		}
		if config.CoapTimeout != 10*time.Second {
			t.Errorf("unexpected CoAP timeout: %v", config.CoapTimeout)
		}
		if config.InitTimeout != 15*time.Second {
			t.Errorf("unexpected init timeout: %v", config.InitTimeout)
		}
	})
}
