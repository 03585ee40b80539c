package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/dataset"
	"github.com/jamesainslie/go-dtbench/internal/bench"
	"github.com/jamesainslie/go-dtbench/internal/metrics"
)

// signalContext is cancelled on interrupt so long sweeps stop between depths.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func schema() dataset.Schema {
	s := dataset.BRFSS()
	s.Target = cfg.Dataset.Target
	return s
}

func loadTable(ctx context.Context) (*dataset.Table, error) {
	logger.Info("loading dataset", "source", cfg.Dataset.Source)
	t, err := dataset.Open(ctx, cfg.Dataset.Source, schema())
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", "rows", t.Rows(), "columns", len(t.Schema().Columns))
	return t, nil
}

func loadSet(ctx context.Context) (dtbench.Set, error) {
	t, err := loadTable(ctx)
	if err != nil {
		return dtbench.Set{}, err
	}
	return t.Set()
}

// loadSplit loads the dataset and divides it into train and test sets.
func loadSplit(ctx context.Context) (train, test dtbench.Set, split *bench.Split, err error) {
	set, err := loadSet(ctx)
	if err != nil {
		return dtbench.Set{}, dtbench.Set{}, nil, err
	}
	train, test, err = dataset.TrainTestSplit(set, cfg.Split.TestFraction, cfg.Split.Seed)
	if err != nil {
		return dtbench.Set{}, dtbench.Set{}, nil, err
	}
	split = &bench.Split{
		TestFraction: cfg.Split.TestFraction,
		Seed:         cfg.Split.Seed,
		Train:        train.Len(),
		Test:         test.Len(),
	}
	return train, test, split, nil
}

func evalOptions(model string) []dtbench.Option {
	metrics.Register()
	return []dtbench.Option{
		dtbench.WithPositive(dtbench.Label(cfg.Positive)),
		dtbench.WithLogger(logger),
		dtbench.WithObserver(metrics.Observer{Model: model}),
	}
}

// heldOutRecord wraps holdout scores as a sweep record at the given depth.
// Unlimited trees that never split have no depth to report.
func heldOutRecord(limit, fitted int, scores dtbench.Scores) []dtbench.SweepRecord {
	depth := limit
	if depth <= 0 {
		depth = fitted
	}
	if depth < 1 {
		return nil
	}
	return []dtbench.SweepRecord{{Depth: depth, Scores: scores}}
}

// finish writes the report and metrics files when configured. runErr is
// recorded in the report and returned.
func finish(r *bench.Report, runErr error) error {
	if runErr != nil && r != nil {
		r.Error = runErr.Error()
	}
	if r != nil && cfg.ReportPath != "" {
		if err := r.WriteFile(cfg.ReportPath); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info("report written", "path", cfg.ReportPath, "run_id", r.RunID)
	}
	if cfg.MetricsTextfile != "" {
		metrics.Register()
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
		logger.Info("metrics written", "path", cfg.MetricsTextfile)
	}
	return runErr
}

func printScores(s dtbench.Scores) {
	c := s.Confusion
	fmt.Printf("Accuracy: %s  Precision: %s  Recall: %s  F1: %s\n", s.Accuracy, s.Precision, s.Recall, s.F1)
	fmt.Printf("(TP: %d, FP: %d, FN: %d, TN: %d)\n", c.TruePositives, c.FalsePositives, c.FalseNegatives, c.TrueNegatives)
}

func printImportances(names []string, imp []float64, top int) {
	idx := make([]int, len(imp))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(imp[b], imp[a]) })
	fmt.Println("Feature importances:")
	for _, i := range idx[:min(top, len(idx))] {
		fmt.Printf("  %-22s %.4f\n", names[i], imp[i])
	}
}
