package main

import (
	"os"

	"github.com/spf13/cobra"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/inference"
	"github.com/jamesainslie/go-dtbench/internal/bench"
	"github.com/jamesainslie/go-dtbench/internal/metrics"
	"github.com/jamesainslie/go-dtbench/tree"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Train one tree per depth and score it on the held-out split",
	Long: `Trains one decision tree per max depth on the training split and scores it
on the test split. With --models, pre-trained ONNX classifiers named by
--pattern are loaded from that directory instead of training in process.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		train, test, split, err := loadSplit(ctx)
		if err != nil {
			return err
		}

		model, trainer, closeFn := depthTrainer()
		defer func() { _ = closeFn() }()

		report := bench.NewReport(cfg.Dataset.Source, model, train.Len()+test.Len())
		report.Split = split

		depths := dtbench.DepthRange(cfg.Depths.Min, cfg.Depths.Max)
		records, err := dtbench.SweepDepths(ctx, metrics.Trainer(model, trainer), train, test, depths, evalOptions(model)...)
		bench.WriteSweepTable(os.Stdout, records)
		report.SetSweep(records)
		return finish(report, err)
	},
}

func init() {
	addDepthFlags(sweepCmd)
	addTreeFlags(sweepCmd)
	sweepCmd.Flags().String("models", "", "directory of pre-trained ONNX models, one per depth")
	sweepCmd.Flags().String("pattern", inference.DefaultPattern, "model file name pattern within --models")
}

func addDepthFlags(cmd *cobra.Command) {
	cmd.Flags().Int("min-depth", 2, "smallest max depth to evaluate")
	cmd.Flags().Int("max-depth", 8, "largest max depth to evaluate")
}

func addTreeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-leaf-nodes", 0, "grow trees best-first up to this many leaves (0: unlimited)")
	cmd.Flags().Int("min-samples-leaf", 1, "minimum rows per leaf")
}

// depthTrainer returns the trainer selected by configuration and its model name.
func depthTrainer() (string, dtbench.Trainer, func() error) {
	if cfg.Models.Dir != "" {
		d := &inference.DirTrainer{
			Dir:     cfg.Models.Dir,
			Pattern: cfg.Models.Pattern,
			Options: []inference.Option{inference.WithLogger(logger)},
		}
		return "onnx", d, d.Close
	}
	t := tree.Trainer(tree.Options{
		MaxLeafNodes:   cfg.Tree.MaxLeafNodes,
		MinSamplesLeaf: cfg.Tree.MinSamplesLeaf,
	})
	return "tree", t, func() error { return nil }
}
