package main

import (
	"os"

	"github.com/spf13/cobra"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/inference"
	"github.com/jamesainslie/go-dtbench/internal/bench"
	"github.com/jamesainslie/go-dtbench/internal/metrics"
)

var cvCmd = &cobra.Command{
	Use:   "cv",
	Short: "Cross-validate every depth on the training split",
	Args:  cobra.NoArgs,
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
		logger.Info("cross-validating", "depths", len(depths), "folds", cfg.Folds, "rows", train.Len())
		results, err := bench.SweepCV(ctx, metrics.Trainer(model, trainer), train, depths, cfg.Folds, evalOptions(model)...)
		metrics.ObserveCV(model, results)
		bench.WriteCVTable(os.Stdout, results)
		report.SetCV(cfg.Folds, results)
		return finish(report, err)
	},
}

func init() {
	addDepthFlags(cvCmd)
	addTreeFlags(cvCmd)
	cvCmd.Flags().Int("folds", 10, "number of stratified folds")
	cvCmd.Flags().String("models", "", "directory of pre-trained ONNX models, one per depth")
	cvCmd.Flags().String("pattern", inference.DefaultPattern, "model file name pattern within --models")
}
