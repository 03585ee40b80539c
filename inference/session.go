// Package inference evaluates pre-trained ONNX tree classifiers with ONNX Runtime.
package inference

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	dtbench "github.com/jamesainslie/go-dtbench"
)

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initORT initializes ONNX Runtime environment once.
func initORT() error {
	ortEnvOnce.Do(func() {
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Session wraps an ONNX Runtime session for one classifier model.
type Session struct {
	session  *ort.DynamicAdvancedSession
	features int
	mu       sync.Mutex
	closed   bool
}

// NewSession creates a session whose input and label output names come from info.
func NewSession(info ModelInfo) (*Session, error) {
	if len(info.Inputs) == 0 {
		return nil, fmt.Errorf("%w: %s has no inputs", ErrInvalidModel, info.Path)
	}
	label, ok := info.LabelOutput()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no label output", ErrInvalidModel, info.Path)
	}
	if info.Inputs[0].ElemType != ElemFloat {
		return nil, fmt.Errorf("%w: input %q has element type %d, want float", ErrInvalidModel, info.Inputs[0].Name, info.Inputs[0].ElemType)
	}

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	session, err := ort.NewDynamicAdvancedSession(
		info.Path,
		[]string{info.Inputs[0].Name},
		[]string{label.Name},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session, features: info.Features()}, nil
}

// Predict runs the model on a batch of rows and returns one label per row.
func (s *Session) Predict(ctx context.Context, features [][]float64) ([]dtbench.Label, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if len(features) == 0 {
		return nil, nil
	}

	width := len(features[0])
	if s.features > 0 && width != s.features {
		return nil, fmt.Errorf("%w: model expects %d features, got %d", dtbench.ErrInvalidSet, s.features, width)
	}
	flat := make([]float32, 0, len(features)*width)
	for i, row := range features {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", dtbench.ErrInvalidSet, i, len(row), width)
		}
		for _, v := range row {
			flat = append(flat, float32(v))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(features)), int64(width)), flat)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	labels, ok := outputs[0].(*ort.Tensor[int64])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}
	data := labels.GetData()
	if len(data) < len(features) {
		return nil, fmt.Errorf("%w: %d labels for %d rows", dtbench.ErrLengthMismatch, len(data), len(features))
	}

	out := make([]dtbench.Label, len(features))
	for i := range out {
		out[i] = dtbench.Label(data[i])
	}
	return out, nil
}

// Close releases ONNX resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
