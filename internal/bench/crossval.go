// Package bench runs cross-validated depth sweeps and renders their reports.
package bench

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/dataset"
)

// CVResult holds the per-fold scores of one depth and their aggregates.
// Aggregates skip folds where the metric is undefined.
type CVResult struct {
	Depth         int              `yaml:"depth"`
	Folds         []dtbench.Scores `yaml:"folds"`
	MeanAccuracy  dtbench.Metric   `yaml:"mean_accuracy"`
	StdAccuracy   dtbench.Metric   `yaml:"std_accuracy"`
	MeanPrecision dtbench.Metric   `yaml:"mean_precision"`
	MeanRecall    dtbench.Metric   `yaml:"mean_recall"`
}

// CrossValidate trains and scores one model per stratified fold at depth.
// Folds run concurrently, so trainer must be safe for concurrent use.
func CrossValidate(ctx context.Context, trainer dtbench.Trainer, depth int, set dtbench.Set, folds int, opts ...dtbench.Option) (CVResult, error) {
	if err := dtbench.ValidateDepths([]int{depth}); err != nil {
		return CVResult{}, err
	}
	if err := set.Validate(); err != nil {
		return CVResult{}, err
	}
	testIdx, err := dataset.StratifiedKFold(set.Labels, folds)
	if err != nil {
		return CVResult{}, err
	}

	scores := make([]dtbench.Scores, len(testIdx))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, idx := range testIdx {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			train := set.Subset(dataset.Complement(set.Len(), idx))
			test := set.Subset(idx)

			model, err := trainer.Train(ctx, depth, train)
			if err != nil {
				return fmt.Errorf("fold %d: train: %w", i, err)
			}
			s, err := dtbench.Evaluate(ctx, model, test, opts...)
			if err != nil {
				return fmt.Errorf("fold %d: %w", i, err)
			}
			scores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CVResult{}, err
	}

	return Aggregate(depth, scores), nil
}

// Aggregate summarizes fold scores. Accuracy spread is the population
// standard deviation.
func Aggregate(depth int, folds []dtbench.Scores) CVResult {
	pick := func(f func(dtbench.Scores) dtbench.Metric) []float64 {
		var out []float64
		for _, s := range folds {
			if v, ok := f(s).Value(); ok {
				out = append(out, v)
			}
		}
		return out
	}

	r := CVResult{Depth: depth, Folds: folds}

	if acc := pick(func(s dtbench.Scores) dtbench.Metric { return s.Accuracy }); len(acc) > 0 {
		m, sd := stat.PopMeanStdDev(acc, nil)
		r.MeanAccuracy = dtbench.Defined(m)
		r.StdAccuracy = dtbench.Defined(sd)
	}
	r.MeanPrecision = mean(pick(func(s dtbench.Scores) dtbench.Metric { return s.Precision }))
	r.MeanRecall = mean(pick(func(s dtbench.Scores) dtbench.Metric { return s.Recall }))
	return r
}

func mean(xs []float64) dtbench.Metric {
	if len(xs) == 0 {
		return dtbench.Undefined()
	}
	return dtbench.Defined(stat.Mean(xs, nil))
}

// SweepCV cross-validates every depth in order. When a depth fails, the
// results completed before it are returned together with the error.
func SweepCV(ctx context.Context, trainer dtbench.Trainer, set dtbench.Set, depths []int, folds int, opts ...dtbench.Option) ([]CVResult, error) {
	if err := dtbench.ValidateDepths(depths); err != nil {
		return nil, err
	}

	results := make([]CVResult, 0, len(depths))
	for _, depth := range depths {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := CrossValidate(ctx, trainer, depth, set, folds, opts...)
		if err != nil {
			return results, fmt.Errorf("depth %d: %w", depth, err)
		}
		results = append(results, r)
	}
	return results, nil
}

// Best returns the record with the highest defined accuracy. Ties go to
// the shallower depth.
func Best(records []dtbench.SweepRecord) (dtbench.SweepRecord, bool) {
	var (
		best  dtbench.SweepRecord
		score float64
		found bool
	)
	for _, r := range records {
		v, ok := r.Accuracy.Value()
		if !ok {
			continue
		}
		if !found || v > score {
			best, score, found = r, v, true
		}
	}
	return best, found
}

// BestCV returns the result with the highest defined mean accuracy.
func BestCV(results []CVResult) (CVResult, bool) {
	var (
		best  CVResult
		score float64
		found bool
	)
	for _, r := range results {
		v, ok := r.MeanAccuracy.Value()
		if !ok {
			continue
		}
		if !found || v > score {
			best, score, found = r, v, true
		}
	}
	return best, found
}
