package nbiot

import (
	"io"
	"log/slog"
	"time"
)

// Config holds the settings for a Modem. Timeouts are per command class:
// a reboot is allowed far longer than a configuration toggle, and a CoAP
// exchange sits in between.
type Config struct {
	Dialer        Dialer
	Logger        *slog.Logger
	ATTimeout     time.Duration
	RebootTimeout time.Duration
	CoapTimeout   time.Duration
	InitTimeout   time.Duration
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.RebootTimeout == 0 {
		c.RebootTimeout = 60 * time.Second
	}
	if c.CoapTimeout == 0 {
		c.CoapTimeout = 20 * time.Second
	}
	if c.InitTimeout == 0 {
		c.InitTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// ConfigBuilder assembles a Config fluently.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder with no settings applied.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

// WithDialer sets the Dialer used to open the modem transport.
func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

// WithLogger sets the structured logger used for command tracing.
func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

// WithATTimeout sets the timeout for ordinary AT commands.
func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

// WithRebootTimeout sets the timeout for the power-cycle sequence.
func (b *ConfigBuilder) WithRebootTimeout(d time.Duration) *ConfigBuilder {
	b.config.RebootTimeout = d
	return b
}

// WithCoapTimeout sets the timeout for a CoAP request/response cycle.
func (b *ConfigBuilder) WithCoapTimeout(d time.Duration) *ConfigBuilder {
	b.config.CoapTimeout = d
	return b
}

// WithInitTimeout sets the timeout for the construction-time init sequence.
func (b *ConfigBuilder) WithInitTimeout(d time.Duration) *ConfigBuilder {
	b.config.InitTimeout = d
	return b
}

// Build validates the assembled Config and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	b.config.setDefaults()
	return b.config, nil
}
