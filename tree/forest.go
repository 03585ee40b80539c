package tree

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// ForestOptions configures a random forest.
type ForestOptions struct {
	Trees           int    // default 100
	MaxDepth        int    // 0 = unlimited
	MaxFeatures     int    // default floor(sqrt(features))
	MinSamplesSplit int    // default 2
	MinSamplesLeaf  int    // default 1
	Seed            uint64 // default 42 when zero
	Workers         int    // default runtime.NumCPU()
}

func (o ForestOptions) withDefaults() ForestOptions {
	if o.Trees <= 0 {
		o.Trees = 100
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	return o
}

// RandomForest averages bootstrapped decision trees.
type RandomForest struct {
	opts  ForestOptions
	trees []*DecisionTree
}

// NewForest returns an unfitted forest.
func NewForest(opts ForestOptions) *RandomForest {
	return &RandomForest{opts: opts.withDefaults()}
}

// Fit grows every tree on its own bootstrap sample. Trees are fitted
// concurrently; each tree's randomness depends only on Seed and its index.
func (f *RandomForest) Fit(ctx context.Context, features [][]float64, labels []dtbench.Label) error {
	set := dtbench.Set{Features: features, Labels: labels}
	if err := set.Validate(); err != nil {
		return err
	}

	maxFeatures := f.opts.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = max(1, int(math.Sqrt(float64(len(features[0])))))
	}

	trees := make([]*DecisionTree, f.opts.Trees)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)

	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seed := f.opts.Seed + uint64(i)*0x9e3779b97f4a7c15
			rng := rand.New(rand.NewPCG(seed, uint64(i)))

			boot := make([]int, len(labels))
			for j := range boot {
				boot[j] = rng.IntN(len(labels))
			}
			sample := set.Subset(boot)

			t := New(Options{
				MaxDepth:        f.opts.MaxDepth,
				MinSamplesSplit: f.opts.MinSamplesSplit,
				MinSamplesLeaf:  f.opts.MinSamplesLeaf,
				MaxFeatures:     maxFeatures,
				Seed:            rng.Uint64(),
			})
			if err := t.Fit(sample.Features, sample.Labels); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	return nil
}

// PredictProba averages the class 1 probability over all trees.
func (f *RandomForest) PredictProba(features [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	out := make([]float64, len(features))
	for _, t := range f.trees {
		p, err := t.PredictProba(features)
		if err != nil {
			return nil, err
		}
		for i := range out {
			out[i] += p[i]
		}
	}
	for i := range out {
		out[i] /= float64(len(f.trees))
	}
	return out, nil
}

// Predict labels each row 1 when the averaged probability exceeds 0.5.
func (f *RandomForest) Predict(ctx context.Context, features [][]float64) ([]dtbench.Label, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	proba, err := f.PredictProba(features)
	if err != nil {
		return nil, err
	}
	return threshold(proba), nil
}

// Trees returns the fitted trees.
func (f *RandomForest) Trees() []*DecisionTree {
	return f.trees
}

// FeatureImportances averages the per-tree importances.
func (f *RandomForest) FeatureImportances() []float64 {
	if len(f.trees) == 0 {
		return nil
	}
	out := make([]float64, len(f.trees[0].importances))
	for _, t := range f.trees {
		for i, v := range t.importances {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(f.trees))
	}
	return out
}
