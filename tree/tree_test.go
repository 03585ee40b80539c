package tree

import (
	"bytes"
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dtbench "github.com/jamesainslie/go-dtbench"
)

// andSet needs depth 2: the label is x0 AND x1, with x2 as noise.
func andSet(n int, seed uint64) dtbench.Set {
	rng := rand.New(rand.NewPCG(seed, 3))
	set := dtbench.Set{FeatureNames: []string{"a", "b", "noise"}}
	for i := 0; i < n; i++ {
		a, b := rng.IntN(2), rng.IntN(2)
		set.Features = append(set.Features, []float64{float64(a), float64(b), rng.Float64()})
		set.Labels = append(set.Labels, dtbench.Label(a&b))
	}
	return set
}

func TestDecisionTree_FitsConjunction(t *testing.T) {
	set := andSet(200, 1)

	dt := New(Options{MaxDepth: 2})
	require.NoError(t, dt.Fit(set.Features, set.Labels))

	got, err := dt.Predict(context.Background(), set.Features)
	require.NoError(t, err)
	assert.Equal(t, set.Labels, got)
	assert.Equal(t, 2, dt.Depth())
	assert.Equal(t, 3, dt.Leaves())

	imp := dt.FeatureImportances()
	require.Len(t, imp, 3)
	assert.InDelta(t, 1.0, imp[0]+imp[1]+imp[2], 1e-9)
	assert.Zero(t, imp[2])
}

func TestDecisionTree_MaxDepthLimits(t *testing.T) {
	set := andSet(200, 2)

	for _, depth := range []int{1, 2, 3, 5} {
		dt := New(Options{MaxDepth: depth})
		require.NoError(t, dt.Fit(set.Features, set.Labels))
		assert.LessOrEqual(t, dt.Depth(), depth)
	}
}

func TestDecisionTree_MaxLeafNodes(t *testing.T) {
	set := andSet(300, 4)

	dt := New(Options{MaxLeafNodes: 2})
	require.NoError(t, dt.Fit(set.Features, set.Labels))
	assert.Equal(t, 2, dt.Leaves())

	full := New(Options{MaxLeafNodes: 3})
	require.NoError(t, full.Fit(set.Features, set.Labels))
	got, err := full.Predict(context.Background(), set.Features)
	require.NoError(t, err)
	assert.Equal(t, set.Labels, got)
}

func TestDecisionTree_MaxFeaturesSkipsConstant(t *testing.T) {
	// Only the last of five features varies, and it separates the classes.
	var set dtbench.Set
	for i := 0; i < 40; i++ {
		l := dtbench.Label(i % 2)
		set.Features = append(set.Features, []float64{1, 1, 0, 0, float64(l)})
		set.Labels = append(set.Labels, l)
	}

	for seed := uint64(0); seed < 20; seed++ {
		dt := New(Options{MaxFeatures: 1, Seed: seed})
		require.NoError(t, dt.Fit(set.Features, set.Labels))
		assert.Equal(t, 2, dt.Leaves(), "seed %d", seed)

		got, err := dt.Predict(context.Background(), set.Features)
		require.NoError(t, err)
		assert.Equal(t, set.Labels, got, "seed %d", seed)
	}
}

func TestDecisionTree_PureLabels(t *testing.T) {
	dt := New(Options{})
	require.NoError(t, dt.Fit([][]float64{{1}, {2}, {3}}, []dtbench.Label{1, 1, 1}))
	assert.Equal(t, 0, dt.Depth())
	assert.Equal(t, 1, dt.Leaves())

	got, err := dt.Predict(context.Background(), [][]float64{{10}})
	require.NoError(t, err)
	assert.Equal(t, []dtbench.Label{1}, got)
}

func TestDecisionTree_InvalidInput(t *testing.T) {
	dt := New(Options{})

	err := dt.Fit([][]float64{{1}, {2}}, []dtbench.Label{0, 2})
	require.ErrorIs(t, err, ErrNotBinary)

	err = dt.Fit([][]float64{{1}}, []dtbench.Label{0, 1})
	require.ErrorIs(t, err, dtbench.ErrLengthMismatch)

	err = dt.Fit(nil, nil)
	require.ErrorIs(t, err, dtbench.ErrInvalidSet)

	_, err = New(Options{}).Predict(context.Background(), [][]float64{{1}})
	require.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, dt.Fit([][]float64{{1}, {2}}, []dtbench.Label{0, 1}))
	_, err = dt.Predict(context.Background(), [][]float64{{1, 2}})
	require.ErrorIs(t, err, dtbench.ErrInvalidSet)
}

func TestDecisionTree_MinSamplesLeaf(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	labels := []dtbench.Label{0, 1, 1, 1, 1, 1}

	dt := New(Options{MinSamplesLeaf: 2})
	require.NoError(t, dt.Fit(features, labels))
	for i := range dt.nodes {
		if dt.nodes[i].leaf() {
			assert.GreaterOrEqual(t, dt.nodes[i].counts[0]+dt.nodes[i].counts[1], 2)
		}
	}
}

func TestDecisionTree_Format(t *testing.T) {
	dt := New(Options{MaxDepth: 1})
	require.NoError(t, dt.Fit([][]float64{{1}, {2}, {8}, {9}}, []dtbench.Label{0, 0, 1, 1}))

	var buf bytes.Buffer
	require.NoError(t, dt.Format(&buf, []string{"BMI"}))
	want := "|--- BMI <= 5.00\n" +
		"|   |--- class: 0 (samples=2, p1=0.00)\n" +
		"|--- BMI >  5.00\n" +
		"|   |--- class: 1 (samples=2, p1=1.00)\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	require.NoError(t, dt.Format(&buf, nil))
	assert.Contains(t, buf.String(), "x[0] <= 5.00")
}

func TestRandomForest(t *testing.T) {
	set := andSet(300, 5)

	rf := NewForest(ForestOptions{Trees: 15, MaxFeatures: 3, Workers: 4})
	require.NoError(t, rf.Fit(context.Background(), set.Features, set.Labels))
	assert.Len(t, rf.Trees(), 15)

	got, err := rf.Predict(context.Background(), set.Features)
	require.NoError(t, err)
	acc, err := dtbench.Accuracy(set.Labels, got)
	require.NoError(t, err)
	v, _ := acc.Value()
	assert.Greater(t, v, 0.95)

	imp := rf.FeatureImportances()
	require.Len(t, imp, 3)
	assert.InDelta(t, 1.0, imp[0]+imp[1]+imp[2], 1e-9)
}

func TestRandomForest_Deterministic(t *testing.T) {
	set := andSet(150, 6)
	probe := andSet(50, 7)

	a := NewForest(ForestOptions{Trees: 8, MaxDepth: 3, Seed: 9, Workers: 3})
	b := NewForest(ForestOptions{Trees: 8, MaxDepth: 3, Seed: 9, Workers: 1})
	require.NoError(t, a.Fit(context.Background(), set.Features, set.Labels))
	require.NoError(t, b.Fit(context.Background(), set.Features, set.Labels))

	pa, err := a.PredictProba(probe.Features)
	require.NoError(t, err)
	pb, err := b.PredictProba(probe.Features)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestRandomForest_Cancelled(t *testing.T) {
	set := andSet(50, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewForest(ForestOptions{Trees: 4}).Fit(ctx, set.Features, set.Labels)
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrainer_SweepDepths(t *testing.T) {
	train := andSet(200, 10)
	test := andSet(80, 11)

	records, err := dtbench.SweepDepths(context.Background(), Trainer(Options{}), train, test, []int{2, 3, 4})
	require.NoError(t, err)
	require.Len(t, records, 3)
	for i, d := range []int{2, 3, 4} {
		assert.Equal(t, d, records[i].Depth)
		acc, ok := records[i].Accuracy.Value()
		require.True(t, ok)
		assert.GreaterOrEqual(t, acc, 0.0)
		assert.LessOrEqual(t, acc, 1.0)
	}

	records, err = dtbench.SweepDepths(context.Background(), ForestTrainer(ForestOptions{Trees: 5}), train, test, []int{1, 2})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
