package tree

import (
	"context"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// Trainer fits a decision tree per requested depth. The depth overrides opts.MaxDepth.
func Trainer(opts Options) dtbench.Trainer {
	return dtbench.TrainerFunc(func(ctx context.Context, maxDepth int, train dtbench.Set) (dtbench.Predictor, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o := opts
		o.MaxDepth = maxDepth
		t := New(o)
		if err := t.Fit(train.Features, train.Labels); err != nil {
			return nil, err
		}
		return t, nil
	})
}

// ForestTrainer fits a random forest per requested depth. The depth overrides opts.MaxDepth.
func ForestTrainer(opts ForestOptions) dtbench.Trainer {
	return dtbench.TrainerFunc(func(ctx context.Context, maxDepth int, train dtbench.Set) (dtbench.Predictor, error) {
		o := opts
		o.MaxDepth = maxDepth
		f := NewForest(o)
		if err := f.Fit(ctx, train.Features, train.Labels); err != nil {
			return nil, err
		}
		return f, nil
	})
}
