package dtbench

import (
	"log/slog"
)

// Option configures evaluation.
type Option func(*config)

// Observer is notified after every completed sweep step.
type Observer interface {
	ObserveStep(record SweepRecord)
}

type config struct {
	positive Label
	logger   *slog.Logger
	observer Observer
}

func defaultConfig() config {
	return config{
		positive: 1,
		logger:   slog.Default(),
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithPositive sets the label that marks the positive class (default: 1).
func WithPositive(l Label) Option {
	return func(c *config) {
		c.positive = l
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an observer for sweep steps.
func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
