package aggregate

import "log/slog"

// Option configures an Aggregate
type Option func(*Config)

// Config holds aggregation policy
type Config struct {
	detector InteractionDetector
	names    NameFilter
	logger   *slog.Logger
}

// WithInteractionDetector replaces the gremlins.js marker detector
func WithInteractionDetector(d InteractionDetector) Option {
	return func(c *Config) {
		c.detector = d
	}
}

// WithNameFilter replaces the default public API name filter. Pass
// AcceptAll to keep every call.
func WithNameFilter(f NameFilter) Option {
	return func(c *Config) {
		c.names = f
	}
}

// WithLogger sets the logger for skipped records
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) Config {
	c := Config{
		detector: DefaultInteractionDetector(),
		names:    DefaultNameFilter(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.detector == nil {
		c.detector = DefaultInteractionDetector()
	}
	if c.names == nil {
		c.names = AcceptAll
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}
