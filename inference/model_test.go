package inference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// valueInfo encodes a ValueInfoProto. A negative dim is written as a dim_param.
func valueInfo(name string, elem int, dims ...int64) []byte {
	var shape []byte
	for _, d := range dims {
		var dim []byte
		if d < 0 {
			dim = appendBytes(dim, 2, []byte("N"))
		} else {
			dim = appendVarint(dim, 1, uint64(d))
		}
		shape = appendBytes(shape, 1, dim)
	}
	var tensorType []byte
	tensorType = appendVarint(tensorType, 1, uint64(elem))
	tensorType = appendBytes(tensorType, 2, shape)

	var typ []byte
	typ = appendBytes(typ, 1, tensorType)

	var vi []byte
	vi = appendBytes(vi, 1, []byte(name))
	vi = appendBytes(vi, 2, typ)
	return vi
}

func classifierModel(features int64) []byte {
	var graph []byte
	graph = appendBytes(graph, 2, []byte("tree"))
	graph = appendBytes(graph, 11, valueInfo("input", ElemFloat, -1, features))
	graph = appendBytes(graph, 12, valueInfo("output_label", ElemInt64, -1))
	graph = appendBytes(graph, 12, valueInfo("output_probability", ElemFloat, -1, 2))

	var model []byte
	model = appendVarint(model, 1, 8)
	model = appendBytes(model, 2, []byte("skl2onnx"))
	model = appendBytes(model, 3, []byte("1.17.0"))
	model = appendVarint(model, 5, 3)
	model = appendBytes(model, 7, graph)
	// doc_string, skipped by the reader
	model = appendBytes(model, 6, []byte("ignored"))
	return model
}

func writeModel(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.onnx")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReadModelInfo(t *testing.T) {
	path := writeModel(t, classifierModel(21))

	info, err := ReadModelInfo(path)
	require.NoError(t, err)

	assert.Equal(t, path, info.Path)
	assert.Equal(t, int64(8), info.IRVersion)
	assert.Equal(t, "skl2onnx", info.ProducerName)
	assert.Equal(t, "1.17.0", info.ProducerVersion)
	assert.Equal(t, int64(3), info.ModelVersion)
	assert.Equal(t, "tree", info.GraphName)

	require.Len(t, info.Inputs, 1)
	assert.Equal(t, Tensor{Name: "input", ElemType: ElemFloat, Dims: []int64{-1, 21}}, info.Inputs[0])
	require.Len(t, info.Outputs, 2)
	assert.Equal(t, 21, info.Features())

	label, ok := info.LabelOutput()
	require.True(t, ok)
	assert.Equal(t, "output_label", label.Name)
}

func TestModelInfo_LabelOutputFallback(t *testing.T) {
	info := ModelInfo{Outputs: []Tensor{
		{Name: "probabilities", ElemType: ElemFloat},
		{Name: "y", ElemType: ElemInt64},
	}}
	label, ok := info.LabelOutput()
	require.True(t, ok)
	assert.Equal(t, "y", label.Name)

	_, ok = ModelInfo{Outputs: []Tensor{{Name: "p", ElemType: ElemDouble}}}.LabelOutput()
	assert.False(t, ok)

	assert.Zero(t, ModelInfo{}.Features())
	assert.Zero(t, ModelInfo{Inputs: []Tensor{{Dims: []int64{-1, -1}}}}.Features())
}

func TestReadModelInfo_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", classifierModel(4)[:10]},
		{"no graph", appendVarint(nil, 1, 8)},
		{"garbage", []byte{0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadModelInfo(writeModel(t, tt.data))
			require.ErrorIs(t, err, ErrInvalidModel)
		})
	}
}

func TestReadModelInfo_Missing(t *testing.T) {
	_, err := ReadModelInfo(filepath.Join(t.TempDir(), "nope.onnx"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
