package inference

import (
	"log/slog"
	"runtime"
)

const defaultBatchSize = 4096

// Option configures a Classifier.
type Option func(*config)

type config struct {
	poolSize  int
	batchSize int
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		poolSize:  runtime.NumCPU(),
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
	}
}

// WithPoolSize sets the ONNX session pool size (default: runtime.NumCPU()).
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithBatchSize sets how many rows one session run scores (default: 4096).
func WithBatchSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.batchSize = n
		}
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
