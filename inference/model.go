package inference

import (
	"fmt"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ONNX TensorProto element types used by exported classifiers.
const (
	ElemFloat  = 1
	ElemInt64  = 7
	ElemDouble = 11
)

// Tensor describes one graph input or output.
type Tensor struct {
	Name     string
	ElemType int
	// Dims holds the static dimensions; -1 marks a symbolic one such as the batch.
	Dims []int64
}

// ModelInfo is the metadata of an ONNX model file.
type ModelInfo struct {
	Path            string
	IRVersion       int64
	ProducerName    string
	ProducerVersion string
	ModelVersion    int64
	GraphName       string
	Inputs          []Tensor
	Outputs         []Tensor
}

// Features returns the static width of the first input, or 0 when unknown.
func (m ModelInfo) Features() int {
	if len(m.Inputs) == 0 || len(m.Inputs[0].Dims) < 2 {
		return 0
	}
	if d := m.Inputs[0].Dims[1]; d > 0 {
		return int(d)
	}
	return 0
}

// LabelOutput picks the output that carries predicted labels: "output_label"
// or "label" when present, otherwise the first int64 output.
func (m ModelInfo) LabelOutput() (Tensor, bool) {
	for _, o := range m.Outputs {
		if o.Name == "output_label" || o.Name == "label" {
			return o, true
		}
	}
	for _, o := range m.Outputs {
		if o.ElemType == ElemInt64 {
			return o, true
		}
	}
	return Tensor{}, false
}

// ReadModelInfo decodes the ModelProto header and graph signature of an ONNX
// file without loading the runtime.
func ReadModelInfo(path string) (ModelInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("reading model file: %w", err)
	}
	info, err := parseModel(data)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("%w: %s: %w", ErrInvalidModel, path, err)
	}
	info.Path = path
	return info, nil
}

// fields walks the top-level fields of a protobuf message. fn returns the
// bytes it consumed, or 0 to skip the field.
func fields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if n == 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func consumeString(b []byte, dst *string) (int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = string(v)
	return n, nil
}

func consumeVarint(b []byte, dst *int64) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*dst = int64(v)
	return n, nil
}

// ModelProto: ir_version=1, producer_name=2, producer_version=3,
// model_version=5, graph=7.
func parseModel(b []byte) (ModelInfo, error) {
	var info ModelInfo
	sawGraph := false
	err := fields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			return consumeVarint(b, &info.IRVersion)
		case num == 2 && typ == protowire.BytesType:
			return consumeString(b, &info.ProducerName)
		case num == 3 && typ == protowire.BytesType:
			return consumeString(b, &info.ProducerVersion)
		case num == 5 && typ == protowire.VarintType:
			return consumeVarint(b, &info.ModelVersion)
		case num == 7 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			sawGraph = true
			return n, parseGraph(v, &info)
		}
		return 0, nil
	})
	if err != nil {
		return ModelInfo{}, err
	}
	if !sawGraph {
		return ModelInfo{}, fmt.Errorf("no graph")
	}
	if len(info.Inputs) == 0 || len(info.Outputs) == 0 {
		return ModelInfo{}, fmt.Errorf("graph declares no inputs or outputs")
	}
	return info, nil
}

// GraphProto: name=2, input=11, output=12.
func parseGraph(b []byte, info *ModelInfo) error {
	return fields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return 0, nil
		}
		switch num {
		case 2:
			return consumeString(b, &info.GraphName)
		case 11, 12:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			t, err := parseValueInfo(v)
			if err != nil {
				return 0, err
			}
			if num == 11 {
				info.Inputs = append(info.Inputs, t)
			} else {
				info.Outputs = append(info.Outputs, t)
			}
			return n, nil
		}
		return 0, nil
	})
}

// ValueInfoProto: name=1, type=2 -> TypeProto.tensor_type=1 ->
// elem_type=1, shape=2 -> dim=1 -> dim_value=1 | dim_param=2.
func parseValueInfo(b []byte) (Tensor, error) {
	var t Tensor
	err := fields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ != protowire.BytesType {
			return 0, nil
		}
		switch num {
		case 1:
			return consumeString(b, &t.Name)
		case 2:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			return n, nested(v, 1, func(tensorType []byte) error {
				return parseTensorType(tensorType, &t)
			})
		}
		return 0, nil
	})
	return t, err
}

func parseTensorType(b []byte, t *Tensor) error {
	return fields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.VarintType:
			var v int64
			n, err := consumeVarint(b, &v)
			t.ElemType = int(v)
			return n, err
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			return n, nested(v, 1, func(dim []byte) error {
				d := int64(-1)
				err := fields(dim, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
					if num == 1 && typ == protowire.VarintType {
						return consumeVarint(b, &d)
					}
					return 0, nil
				})
				t.Dims = append(t.Dims, d)
				return err
			})
		}
		return 0, nil
	})
}

// nested calls fn with the payload of every length-delimited field want in b.
func nested(b []byte, want protowire.Number, fn func([]byte) error) error {
	return fields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != want || typ != protowire.BytesType {
			return 0, nil
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		return n, fn(v)
	})
}
