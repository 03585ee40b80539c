package main

import (
	"fmt"

	"github.com/spf13/cobra"

	dtbench "github.com/jamesainslie/go-dtbench"
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Show the train/test split sizes and class balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		train, test, split, err := loadSplit(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Split (test fraction %.2f, seed %d)\n", split.TestFraction, split.Seed)
		for _, s := range []struct {
			name string
			set  dtbench.Set
		}{{"train", train}, {"test", test}} {
			pos := 0
			for _, l := range s.set.Labels {
				if l == dtbench.Label(cfg.Positive) {
					pos++
				}
			}
			fmt.Printf("  %-6s %7d rows, %6.2f%% positive\n", s.name, s.set.Len(), float64(pos)/float64(s.set.Len())*100)
		}
		return nil
	},
}
