package parser

import (
	"log/slog"
	"time"
)

// Option configures Parse
type Option func(*Config)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Record and failure counts only
	TelemetryTiming                      // Counts + elapsed time
)

// Config holds parser configuration
type Config struct {
	telemetry TelemetryMode
	logger    *slog.Logger
}

// WithTelemetryBasic enables per-record-kind counts
func WithTelemetryBasic() Option {
	return func(c *Config) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables counts and elapsed time
func WithTelemetryTiming() Option {
	return func(c *Config) {
		c.telemetry = TelemetryTiming
	}
}

// WithLogger sets the logger used to report failed lines at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) *Config {
	c := &Config{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Telemetry holds decoding metrics for one input
type Telemetry struct {
	Lines    int          // Lines read
	Records  map[byte]int // Decoded records by tag
	Failures int          // Lines that failed to decode, plus read errors
	Elapsed  time.Duration
}

func (t *Telemetry) record(tag byte) {
	if t == nil {
		return
	}
	t.Lines++
	t.Records[tag]++
}

func (t *Telemetry) fail() {
	if t == nil {
		return
	}
	t.Lines++
	t.Failures++
}

// readFailed counts a read error, which consumes no line.
func (t *Telemetry) readFailed() {
	if t == nil {
		return
	}
	t.Failures++
}
