package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-dtbench/dataset"
	"github.com/jamesainslie/go-dtbench/internal/bench"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Summarize columns, class balance and correlation with the target",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		t, err := loadTable(ctx)
		if err != nil {
			return err
		}

		bench.WriteProfile(os.Stdout, dataset.NewProfile(t))
		names, matrix := dataset.Correlation(t)
		return bench.WriteCorrelation(os.Stdout, names, matrix, cfg.Dataset.Target)
	},
}
