package metrics

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/internal/bench"
)

type allPositive struct{}

func (allPositive) Predict(_ context.Context, features [][]float64) ([]dtbench.Label, error) {
	out := make([]dtbench.Label, len(features))
	for i := range out {
		out[i] = 1
	}
	return out, nil
}

func TestTrainer_RecordsFits(t *testing.T) {
	boom := errors.New("boom")
	inner := dtbench.TrainerFunc(func(_ context.Context, depth int, _ dtbench.Set) (dtbench.Predictor, error) {
		if depth > 2 {
			return nil, boom
		}
		return allPositive{}, nil
	})
	trainer := Trainer("test-fits", inner)

	okBefore := testutil.ToFloat64(FitsTotal.WithLabelValues("test-fits", "ok"))
	errBefore := testutil.ToFloat64(FitsTotal.WithLabelValues("test-fits", "error"))
	rowsBefore := testutil.ToFloat64(PredictedRowsTotal.WithLabelValues("test-fits"))

	p, err := trainer.Train(context.Background(), 1, dtbench.Set{})
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	labels, err := p.Predict(context.Background(), [][]float64{{0}, {1}, {2}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("got %d labels, want 3", len(labels))
	}

	if _, err := trainer.Train(context.Background(), 3, dtbench.Set{}); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if got := testutil.ToFloat64(FitsTotal.WithLabelValues("test-fits", "ok")) - okBefore; got != 1 {
		t.Errorf("ok fits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(FitsTotal.WithLabelValues("test-fits", "error")) - errBefore; got != 1 {
		t.Errorf("error fits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(PredictedRowsTotal.WithLabelValues("test-fits")) - rowsBefore; got != 3 {
		t.Errorf("predicted rows = %v, want 3", got)
	}
	if testutil.CollectAndCount(FitDuration) == 0 {
		t.Error("expected fit_duration_seconds to have observations")
	}
}

func TestObserver_SetsSweepGauge(t *testing.T) {
	set := dtbench.Set{
		Features: [][]float64{{0}, {1}, {2}, {3}},
		Labels:   []dtbench.Label{1, 1, 0, 1},
	}
	trainer := dtbench.TrainerFunc(func(context.Context, int, dtbench.Set) (dtbench.Predictor, error) {
		return allPositive{}, nil
	})

	_, err := dtbench.SweepDepths(context.Background(), trainer, set, set, []int{2, 5},
		dtbench.WithObserver(Observer{Model: "test-sweep"}))
	if err != nil {
		t.Fatalf("SweepDepths failed: %v", err)
	}

	for _, depth := range []string{"2", "5"} {
		if got := testutil.ToFloat64(SweepAccuracy.WithLabelValues("test-sweep", depth)); got != 0.75 {
			t.Errorf("accuracy at depth %s = %v, want 0.75", depth, got)
		}
	}

	Observer{Model: "test-sweep"}.ObserveStep(dtbench.SweepRecord{Depth: 9})
	if got := testutil.ToFloat64(SweepAccuracy.WithLabelValues("test-sweep", "9")); !math.IsNaN(got) {
		t.Errorf("undefined accuracy = %v, want NaN", got)
	}
}

func TestObserveCV(t *testing.T) {
	ObserveCV("test-cv", []bench.CVResult{
		{Depth: 3, MeanAccuracy: dtbench.Defined(0.7)},
	})
	if got := testutil.ToFloat64(CVAccuracy.WithLabelValues("test-cv", "3")); got != 0.7 {
		t.Errorf("cv accuracy = %v, want 0.7", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	Register()
	Register()

	FitsTotal.WithLabelValues("test-textfile", "ok").Inc()

	path := filepath.Join(t.TempDir(), "dtbench.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !slices.Contains(strings.Split(string(data), "\n"), `dtbench_fits_total{model="test-textfile",status="ok"} 1`) {
		t.Errorf("textfile missing fits counter:\n%s", data)
	}
}
