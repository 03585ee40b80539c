package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/go-dtbench/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "dtbench",
	Short: "Decision tree depth benchmarks on the BRFSS diabetes indicators",
	Long: `dtbench loads the CDC BRFSS 2015 diabetes health indicators, profiles them
and measures how decision tree depth trades accuracy, precision and recall.

Precision and recall are reported as n/a when undefined: precision when the
model predicts no positives, recall when the test set holds none.`,
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindCommandFlags(cmd); err != nil {
			return err
		}
		c, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = c
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.dtbench.yaml or ./config/dtbench.yaml)")
	flags.String("source", config.DefaultSource, "dataset CSV path or http(s) URL")
	flags.String("target", "Diabetes_binary", "target column")
	flags.Int("positive", 1, "label value of the positive class")
	flags.String("log-level", "info", "log level: debug|info|warn|error")
	flags.String("report", "", "write a YAML report to this path")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this textfile")
	flags.Float64("test-fraction", 0.2, "share of rows held out for testing")
	flags.Uint64("seed", 42, "shuffle seed for the train/test split")

	_ = viper.BindPFlag(config.KeySource, flags.Lookup("source"))
	_ = viper.BindPFlag(config.KeyTarget, flags.Lookup("target"))
	_ = viper.BindPFlag(config.KeyPositive, flags.Lookup("positive"))
	_ = viper.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyReportPath, flags.Lookup("report"))
	_ = viper.BindPFlag(config.KeyMetricsTextfile, flags.Lookup("metrics-textfile"))
	_ = viper.BindPFlag(config.KeyTestFraction, flags.Lookup("test-fraction"))
	_ = viper.BindPFlag(config.KeySeed, flags.Lookup("seed"))

	rootCmd.AddCommand(profileCmd, splitCmd, sweepCmd, cvCmd, treeCmd, forestCmd, predictCmd)
}

func initConfig() {
	// DTBENCH_CV_FOLDS overrides cv.folds
	viper.SetEnvPrefix("DTBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		cobra.CheckErr(viper.ReadInConfig())
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		return
	}

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)

	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	viper.AddConfigPath("./config")

	// Try .dtbench first
	viper.SetConfigName(".dtbench")
	err = viper.ReadInConfig()

	notFound := &viper.ConfigFileNotFoundError{}
	if err != nil && errors.As(err, notFound) {
		viper.SetConfigName("dtbench")
		err = viper.ReadInConfig()
	}

	switch {
	case err != nil && !errors.As(err, notFound):
		cobra.CheckErr(err)
	case err != nil:
		// The config file is optional
	default:
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// commandFlags maps subcommand flag names to config keys. Several subcommands
// share a flag, so binding happens once the command is known.
var commandFlags = map[string]string{
	"min-depth":        config.KeyDepthMin,
	"max-depth":        config.KeyDepthMax,
	"folds":            config.KeyFolds,
	"max-leaf-nodes":   config.KeyMaxLeafNodes,
	"min-samples-leaf": config.KeyMinSamplesLeaf,
	"trees":            config.KeyTrees,
	"forest-depth":     config.KeyForestDepth,
	"forest-seed":      config.KeyForestSeed,
	"models":           config.KeyModelsDir,
	"pattern":          config.KeyModelsPattern,
}

func bindCommandFlags(cmd *cobra.Command) error {
	for name, key := range commandFlags {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}
