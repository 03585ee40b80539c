package inference

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dtbench "github.com/jamesainslie/go-dtbench"
)

const modelDir = "../testdata/models"

func TestOpen_FileNotFound(t *testing.T) {
	_, err := Open("../testdata/nonexistent.onnx")
	require.ErrorIs(t, err, ErrModelNotFound)
}

func TestOpen_InvalidModel(t *testing.T) {
	path := writeModel(t, []byte("not a model"))
	_, err := Open(path)
	require.ErrorIs(t, err, ErrInvalidModel)
}

func TestNewSession_NoLabelOutput(t *testing.T) {
	info := ModelInfo{
		Path:    "m.onnx",
		Inputs:  []Tensor{{Name: "input", ElemType: ElemFloat}},
		Outputs: []Tensor{{Name: "p", ElemType: ElemFloat}},
	}
	_, err := NewSession(info)
	require.ErrorIs(t, err, ErrInvalidModel)

	info.Outputs = []Tensor{{Name: "label", ElemType: ElemInt64}}
	info.Inputs[0].ElemType = ElemDouble
	_, err = NewSession(info)
	require.ErrorIs(t, err, ErrInvalidModel)
}

func TestNewSession_NoInputs(t *testing.T) {
	info := ModelInfo{
		Path:    "m.onnx",
		Outputs: []Tensor{{Name: "label", ElemType: ElemInt64}},
	}
	_, err := NewSession(info)
	require.ErrorIs(t, err, ErrInvalidModel)
}

func TestDirTrainer_Path(t *testing.T) {
	d := &DirTrainer{Dir: "models"}
	assert.Equal(t, filepath.Join("models", "depth_3.onnx"), d.Path(3))

	d.Pattern = "tree-%02d.onnx"
	assert.Equal(t, filepath.Join("models", "tree-07.onnx"), d.Path(7))
}

func TestDirTrainer_MissingDepth(t *testing.T) {
	d := &DirTrainer{Dir: t.TempDir()}
	defer func() { _ = d.Close() }()

	records, err := dtbench.SweepDepths(context.Background(), d, toySet(), toySet(), []int{2, 3})
	require.ErrorIs(t, err, ErrModelNotFound)
	assert.Empty(t, records)
	assert.Contains(t, err.Error(), "depth 2")
}

func TestDirTrainer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&DirTrainer{Dir: t.TempDir()}).Train(ctx, 2, toySet())
	require.ErrorIs(t, err, context.Canceled)
}

func TestClassifier_Predict(t *testing.T) {
	path := filepath.Join(modelDir, "depth_2.onnx")

	// Skip if model file doesn't exist
	if _, err := os.Stat(path); err != nil {
		t.Skipf("Skipping: model not available at %s", path)
	}

	c, err := Open(path, WithPoolSize(2), WithBatchSize(3))
	if err != nil {
		if isORTUnavailableError(err) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = c.Close() }()

	n := c.Info().Features()
	require.Positive(t, n)

	rows := make([][]float64, 10)
	for i := range rows {
		rows[i] = make([]float64, n)
		rows[i][0] = float64(i % 2)
	}
	labels, err := c.Predict(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, labels, len(rows))
	for _, l := range labels {
		assert.Contains(t, []dtbench.Label{0, 1}, l)
	}

	_, err = c.Predict(context.Background(), [][]float64{make([]float64, n+1)})
	require.ErrorIs(t, err, dtbench.ErrInvalidSet)
}

func TestPool_Closed(t *testing.T) {
	path := filepath.Join(modelDir, "depth_2.onnx")

	// Skip if model file doesn't exist
	if _, err := os.Stat(path); err != nil {
		t.Skipf("Skipping: model not available at %s", path)
	}

	info, err := ReadModelInfo(path)
	require.NoError(t, err)

	pool, err := NewPool(info, 0, 0)
	if err != nil {
		if isORTUnavailableError(err) {
			t.Skipf("Skipping: ONNX runtime not available: %v", err)
		}
		t.Fatalf("NewPool failed: %v", err)
	}
	assert.Equal(t, 1, pool.Size())

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err = pool.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolClosed)
}

func toySet() dtbench.Set {
	return dtbench.Set{
		Features: [][]float64{{0}, {1}},
		Labels:   []dtbench.Label{0, 1},
	}
}

// isORTUnavailableError checks if the error indicates ONNX runtime is not available.
func isORTUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "onnxruntime") ||
		strings.Contains(errStr, "shared library") ||
		strings.Contains(errStr, "dylib") ||
		strings.Contains(errStr, ".so") ||
		strings.Contains(errStr, ".dll") ||
		strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "cannot open") ||
		strings.Contains(errStr, "initializing ONNX runtime")
}
