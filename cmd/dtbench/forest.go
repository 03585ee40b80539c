package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/internal/bench"
	"github.com/jamesainslie/go-dtbench/internal/metrics"
	"github.com/jamesainslie/go-dtbench/tree"
)

var forestCmd = &cobra.Command{
	Use:   "forest",
	Short: "Fit a random forest and score it on the held-out split",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		train, test, split, err := loadSplit(ctx)
		if err != nil {
			return err
		}

		rf := tree.NewForest(tree.ForestOptions{
			Trees:          cfg.Forest.Trees,
			MaxDepth:       cfg.Forest.MaxDepth,
			MinSamplesLeaf: cfg.Tree.MinSamplesLeaf,
			Seed:           cfg.Forest.Seed,
		})

		start := time.Now()
		err = rf.Fit(ctx, train.Features, train.Labels)
		metrics.Register()
		metrics.FitDuration.WithLabelValues("forest").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.FitsTotal.WithLabelValues("forest", "error").Inc()
			return err
		}
		metrics.FitsTotal.WithLabelValues("forest", "ok").Inc()
		logger.Info("forest fitted", "trees", len(rf.Trees()), "elapsed", time.Since(start))

		scores, err := dtbench.Evaluate(ctx, rf, test, evalOptions("forest")...)
		if err != nil {
			return err
		}
		fmt.Printf("Random Forest Results (%d trees)\n", len(rf.Trees()))
		printScores(scores)
		printImportances(train.FeatureNames, rf.FeatureImportances(), 5)

		report := bench.NewReport(cfg.Dataset.Source, "forest", train.Len()+test.Len())
		report.Split = split
		deepest := 0
		for _, dt := range rf.Trees() {
			deepest = max(deepest, dt.Depth())
		}
		report.SetSweep(heldOutRecord(cfg.Forest.MaxDepth, deepest, scores))
		return finish(report, nil)
	},
}

func init() {
	forestCmd.Flags().Int("trees", 100, "number of trees")
	forestCmd.Flags().Int("forest-depth", 0, "max depth of each tree (0: unlimited)")
	forestCmd.Flags().Uint64("forest-seed", 42, "bootstrap and feature sampling seed")
	forestCmd.Flags().Int("min-samples-leaf", 1, "minimum rows per leaf")
}
