package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// Classifier is a pooled ONNX classifier. It is safe for concurrent use.
type Classifier struct {
	pool   *Pool
	config config
}

// Open loads the ONNX classifier at path.
func Open(path string, opts ...Option) (*Classifier, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	info, err := ReadModelInfo(path)
	if err != nil {
		return nil, err
	}

	pool, err := NewPool(info, cfg.poolSize, cfg.batchSize)
	if err != nil {
		return nil, fmt.Errorf("creating session pool: %w", err)
	}

	cfg.logger.Debug("classifier loaded",
		"path", path,
		"producer", info.ProducerName,
		"features", info.Features(),
		"pool_size", pool.Size(),
	)

	return &Classifier{pool: pool, config: cfg}, nil
}

// Predict implements dtbench.Predictor.
func (c *Classifier) Predict(ctx context.Context, features [][]float64) ([]dtbench.Label, error) {
	return c.pool.Predict(ctx, features)
}

// Info returns the model metadata.
func (c *Classifier) Info() ModelInfo {
	return c.pool.Info()
}

// Close releases resources.
func (c *Classifier) Close() error {
	return c.pool.Close()
}

// DefaultPattern names one exported model per depth.
const DefaultPattern = "depth_%d.onnx"

// DirTrainer serves pre-trained models from a directory, one file per depth.
// The training set is ignored; the models were fitted elsewhere. Loaded
// classifiers stay open until Close.
type DirTrainer struct {
	Dir     string
	Pattern string
	Options []Option

	mu     sync.Mutex
	loaded []*Classifier
}

// Path returns the model file for depth.
func (d *DirTrainer) Path(depth int) string {
	pattern := d.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	return filepath.Join(d.Dir, fmt.Sprintf(pattern, depth))
}

// Train implements dtbench.Trainer.
func (d *DirTrainer) Train(ctx context.Context, maxDepth int, train dtbench.Set) (dtbench.Predictor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := Open(d.Path(maxDepth), d.Options...)
	if err != nil {
		return nil, err
	}
	if n := c.Info().Features(); n > 0 && len(train.FeatureNames) > 0 && n != len(train.FeatureNames) {
		_ = c.Close()
		return nil, fmt.Errorf("%w: model expects %d features, set has %d", ErrInvalidModel, n, len(train.FeatureNames))
	}

	d.mu.Lock()
	d.loaded = append(d.loaded, c)
	d.mu.Unlock()
	return c, nil
}

// Close closes every classifier loaded by Train.
func (d *DirTrainer) Close() error {
	d.mu.Lock()
	loaded := d.loaded
	d.loaded = nil
	d.mu.Unlock()

	var errs []error
	for _, c := range loaded {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
