package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	dtbench "github.com/jamesainslie/go-dtbench"
	"github.com/jamesainslie/go-dtbench/internal/bench"
	"github.com/jamesainslie/go-dtbench/tree"
)

var treeDepth int

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Fit a single tree, print its rules and score it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		train, test, split, err := loadSplit(ctx)
		if err != nil {
			return err
		}

		dt := tree.New(tree.Options{
			MaxDepth:       treeDepth,
			MaxLeafNodes:   cfg.Tree.MaxLeafNodes,
			MinSamplesLeaf: cfg.Tree.MinSamplesLeaf,
		})
		if err := dt.Fit(train.Features, train.Labels); err != nil {
			return err
		}
		logger.Info("tree fitted", "depth", dt.Depth(), "leaves", dt.Leaves())

		if err := dt.Format(os.Stdout, train.FeatureNames); err != nil {
			return err
		}
		fmt.Println()

		scores, err := dtbench.Evaluate(ctx, dt, test, evalOptions("tree")...)
		if err != nil {
			return err
		}
		fmt.Printf("Decision Tree (Depth: %d, Leaves: %d)\n", dt.Depth(), dt.Leaves())
		printScores(scores)
		printImportances(train.FeatureNames, dt.FeatureImportances(), 5)

		report := bench.NewReport(cfg.Dataset.Source, "tree", train.Len()+test.Len())
		report.Split = split
		report.SetSweep(heldOutRecord(treeDepth, dt.Depth(), scores))
		return finish(report, nil)
	},
}

func init() {
	treeCmd.Flags().IntVar(&treeDepth, "depth", 3, "max depth of the tree (0: unlimited)")
	addTreeFlags(treeCmd)
}
