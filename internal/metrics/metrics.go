// Package metrics exposes Prometheus metrics for model fits and depth sweeps.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/internal/bench"
)

var (
	// FitsTotal counts model fits by model and outcome.
	FitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtbench",
			Name:      "fits_total",
			Help:      "Total number of model fits",
		},
		[]string{"model", "status"},
	)

	// FitDuration observes how long each fit takes.
	FitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dtbench",
			Name:      "fit_duration_seconds",
			Help:      "Model fit duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"model"},
	)

	// PredictedRowsTotal counts rows scored by fitted models.
	PredictedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dtbench",
			Name:      "predicted_rows_total",
			Help:      "Total number of rows scored by trained models",
		},
		[]string{"model"},
	)

	// SweepAccuracy holds the holdout accuracy of each swept depth.
	SweepAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dtbench",
			Name:      "sweep_accuracy",
			Help:      "Holdout accuracy of the last sweep, by depth",
		},
		[]string{"model", "depth"},
	)

	// CVAccuracy holds the mean cross-validated accuracy of each depth.
	CVAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "dtbench",
			Name:      "cv_accuracy",
			Help:      "Mean cross-validated accuracy of the last sweep, by depth",
		},
		[]string{"model", "depth"},
	)
)

var registerOnce sync.Once

// Register adds the dtbench collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(FitsTotal)
		prometheus.MustRegister(FitDuration)
		prometheus.MustRegister(PredictedRowsTotal)
		prometheus.MustRegister(SweepAccuracy)
		prometheus.MustRegister(CVAccuracy)
	})
}

// Trainer records fit counts and durations for every model t trains.
func Trainer(model string, t dtbench.Trainer) dtbench.Trainer {
	return dtbench.TrainerFunc(func(ctx context.Context, maxDepth int, train dtbench.Set) (dtbench.Predictor, error) {
		start := time.Now()
		p, err := t.Train(ctx, maxDepth, train)
		FitDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
		if err != nil {
			FitsTotal.WithLabelValues(model, "error").Inc()
			return nil, err
		}
		FitsTotal.WithLabelValues(model, "ok").Inc()
		return &countingPredictor{model: model, next: p}, nil
	})
}

type countingPredictor struct {
	model string
	next  dtbench.Predictor
}

func (c *countingPredictor) Predict(ctx context.Context, features [][]float64) ([]dtbench.Label, error) {
	labels, err := c.next.Predict(ctx, features)
	if err == nil {
		PredictedRowsTotal.WithLabelValues(c.model).Add(float64(len(labels)))
	}
	return labels, err
}

// Observer sets the sweep accuracy gauge after every sweep step.
type Observer struct {
	Model string
}

// ObserveStep implements dtbench.Observer. Undefined accuracy is exported as NaN.
func (o Observer) ObserveStep(r dtbench.SweepRecord) {
	SweepAccuracy.WithLabelValues(o.Model, strconv.Itoa(r.Depth)).Set(r.Accuracy.Float())
}

// ObserveCV sets the cross-validated accuracy gauge for every result.
func ObserveCV(model string, results []bench.CVResult) {
	for _, r := range results {
		CVAccuracy.WithLabelValues(model, strconv.Itoa(r.Depth)).Set(r.MeanAccuracy.Float())
	}
}

// WriteTextfile writes the default registry in the text exposition format
// for the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
