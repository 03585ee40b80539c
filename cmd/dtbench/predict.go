package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/inference"
)

var predictAll bool

var predictCmd = &cobra.Command{
	Use:   "predict MODEL.onnx",
	Short: "Score a pre-trained ONNX classifier on the dataset",
	Long: `Loads an ONNX classifier exported elsewhere and scores it on the held-out
split, or on every row with --all. The model input must take the feature
columns in schema order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		info, err := inference.ReadModelInfo(args[0])
		if err != nil {
			return err
		}
		label, _ := info.LabelOutput()
		fmt.Printf("Model: %s (%s %s, IR v%d)\n", info.Path, info.ProducerName, info.ProducerVersion, info.IRVersion)
		fmt.Printf("Input: %s %v  Label output: %s\n", info.Inputs[0].Name, info.Inputs[0].Dims, label.Name)

		c, err := inference.Open(args[0], inference.WithLogger(logger))
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		var eval dtbench.Set
		if predictAll {
			eval, err = loadSet(ctx)
		} else {
			_, eval, _, err = loadSplit(ctx)
		}
		if err != nil {
			return err
		}

		scores, err := dtbench.Evaluate(ctx, c, eval, evalOptions("onnx")...)
		if err != nil {
			return err
		}
		printScores(scores)
		return finish(nil, nil)
	},
}

func init() {
	predictCmd.Flags().BoolVar(&predictAll, "all", false, "score every row instead of the test split")
}
