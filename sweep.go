package dtbench

import (
	"context"
	"fmt"
	"time"
)

// Set is a feature matrix with one label per row.
type Set struct {
	Features     [][]float64
	Labels       []Label
	FeatureNames []string
}

// Len returns the number of samples.
func (s Set) Len() int {
	return len(s.Labels)
}

// Validate checks that the set is non-empty, rectangular and labelled row for row.
func (s Set) Validate() error {
	if len(s.Features) != len(s.Labels) {
		return fmt.Errorf("%w: %d feature rows, %d labels", ErrLengthMismatch, len(s.Features), len(s.Labels))
	}
	if len(s.Features) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidSet)
	}
	width := len(s.Features[0])
	if width == 0 {
		return fmt.Errorf("%w: no features", ErrInvalidSet)
	}
	for i, row := range s.Features {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidSet, i, len(row), width)
		}
	}
	if len(s.FeatureNames) > 0 && len(s.FeatureNames) != width {
		return fmt.Errorf("%w: %d feature names for %d features", ErrInvalidSet, len(s.FeatureNames), width)
	}
	return nil
}

// Subset returns the samples at idx. Rows are shared with s, not copied.
func (s Set) Subset(idx []int) Set {
	out := Set{
		Features:     make([][]float64, len(idx)),
		Labels:       make([]Label, len(idx)),
		FeatureNames: s.FeatureNames,
	}
	for i, j := range idx {
		out.Features[i] = s.Features[j]
		out.Labels[i] = s.Labels[j]
	}
	return out
}

// Predictor assigns a label to every feature row.
type Predictor interface {
	Predict(ctx context.Context, features [][]float64) ([]Label, error)
}

// Trainer produces a predictor restricted to maxDepth from a training set.
type Trainer interface {
	Train(ctx context.Context, maxDepth int, train Set) (Predictor, error)
}

// TrainerFunc adapts a function to the Trainer interface.
type TrainerFunc func(ctx context.Context, maxDepth int, train Set) (Predictor, error)

// Train calls f.
func (f TrainerFunc) Train(ctx context.Context, maxDepth int, train Set) (Predictor, error) {
	return f(ctx, maxDepth, train)
}

// SweepRecord holds the scores of the model trained at one depth.
type SweepRecord struct {
	Depth  int `yaml:"depth"`
	Scores `yaml:",inline"`
}

// DepthRange returns the depths from min to max inclusive.
func DepthRange(min, max int) []int {
	var depths []int
	for d := min; d <= max; d++ {
		depths = append(depths, d)
	}
	return depths
}

// ValidateDepths checks that depths are positive and strictly increasing.
func ValidateDepths(depths []int) error {
	for i, d := range depths {
		if d <= 0 {
			return fmt.Errorf("%w: %d is not positive", ErrInvalidDepth, d)
		}
		if i > 0 && d <= depths[i-1] {
			return fmt.Errorf("%w: %d follows %d", ErrInvalidDepth, d, depths[i-1])
		}
	}
	return nil
}

// Evaluate predicts on test and scores the predictions.
func Evaluate(ctx context.Context, p Predictor, test Set, opts ...Option) (Scores, error) {
	predicted, err := p.Predict(ctx, test.Features)
	if err != nil {
		return Scores{}, fmt.Errorf("predict: %w", err)
	}
	return Score(test.Labels, predicted, opts...)
}

// SweepDepths trains one model per depth on train and scores it on test.
// Records are returned in the order of depths. When a step fails, the
// records completed before it are returned together with the error.
func SweepDepths(ctx context.Context, trainer Trainer, train, test Set, depths []int, opts ...Option) ([]SweepRecord, error) {
	cfg := newConfig(opts)

	if err := ValidateDepths(depths); err != nil {
		return nil, err
	}
	if err := train.Validate(); err != nil {
		return nil, fmt.Errorf("training set: %w", err)
	}
	if err := test.Validate(); err != nil {
		return nil, fmt.Errorf("test set: %w", err)
	}

	records := make([]SweepRecord, 0, len(depths))
	for _, depth := range depths {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		rec, err := sweepStep(ctx, cfg, trainer, train, test, depth, opts)
		if err != nil {
			return records, fmt.Errorf("depth %d: %w", depth, err)
		}

		cfg.logger.Info("depth evaluated",
			"depth", rec.Depth,
			"accuracy", rec.Accuracy.String(),
			"precision", rec.Precision.String(),
			"recall", rec.Recall.String(),
		)
		if cfg.observer != nil {
			cfg.observer.ObserveStep(rec)
		}

		records = append(records, rec)
	}

	return records, nil
}

// sweepStep trains and scores a single depth. It shares no state with other steps.
func sweepStep(ctx context.Context, cfg config, trainer Trainer, train, test Set, depth int, opts []Option) (SweepRecord, error) {
	start := time.Now()
	model, err := trainer.Train(ctx, depth, train)
	if err != nil {
		return SweepRecord{}, fmt.Errorf("train: %w", err)
	}
	cfg.logger.Debug("model trained", "depth", depth, "elapsed", time.Since(start))

	scores, err := Evaluate(ctx, model, test, opts...)
	if err != nil {
		return SweepRecord{}, err
	}
	return SweepRecord{Depth: depth, Scores: scores}, nil
}
