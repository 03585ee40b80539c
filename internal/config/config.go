// Package config loads dtbench settings from viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// DefaultSource is the published 50/50 split of the BRFSS 2015 diabetes indicators.
const DefaultSource = "https://raw.githubusercontent.com/apretko11/Intro-to-Supervised-ML/main/diabetes_binary_5050split_health_indicators_BRFSS2015.csv"

// ErrInvalid indicates a configuration value out of range.
var ErrInvalid = errors.New("config: invalid value")

// Keys read by Load. Flags bind to the same names.
const (
	KeySource          = "dataset.source"
	KeyTarget          = "dataset.target"
	KeyTestFraction    = "split.test-fraction"
	KeySeed            = "split.seed"
	KeyDepthMin        = "depths.min"
	KeyDepthMax        = "depths.max"
	KeyFolds           = "cv.folds"
	KeyMaxLeafNodes    = "tree.max-leaf-nodes"
	KeyMinSamplesLeaf  = "tree.min-samples-leaf"
	KeyTrees           = "forest.trees"
	KeyForestDepth     = "forest.max-depth"
	KeyForestSeed      = "forest.seed"
	KeyPositive        = "positive"
	KeyModelsDir       = "models.dir"
	KeyModelsPattern   = "models.pattern"
	KeyLogLevel        = "log.level"
	KeyReportPath      = "report.path"
	KeyMetricsTextfile = "metrics.textfile"
)

// Config is the validated runtime configuration.
type Config struct {
	Dataset struct {
		Source string
		Target string
	}
	Split struct {
		TestFraction float64
		Seed         uint64
	}
	Depths struct {
		Min int
		Max int
	}
	Folds int
	Tree  struct {
		MaxLeafNodes   int
		MinSamplesLeaf int
	}
	Forest struct {
		Trees    int
		MaxDepth int
		Seed     uint64
	}
	Positive int
	Models   struct {
		Dir     string
		Pattern string
	}
	LogLevel        slog.Level
	ReportPath      string
	MetricsTextfile string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeySource, DefaultSource)
	v.SetDefault(KeyTarget, "Diabetes_binary")
	v.SetDefault(KeyTestFraction, 0.2)
	v.SetDefault(KeySeed, 42)
	v.SetDefault(KeyDepthMin, 2)
	v.SetDefault(KeyDepthMax, 8)
	v.SetDefault(KeyFolds, 10)
	v.SetDefault(KeyTrees, 100)
	v.SetDefault(KeyForestSeed, 42)
	v.SetDefault(KeyPositive, 1)
	v.SetDefault(KeyModelsPattern, "depth_%d.onnx")
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var c Config
	c.Dataset.Source = v.GetString(KeySource)
	c.Dataset.Target = v.GetString(KeyTarget)
	c.Split.TestFraction = v.GetFloat64(KeyTestFraction)
	c.Split.Seed = v.GetUint64(KeySeed)
	c.Depths.Min = v.GetInt(KeyDepthMin)
	c.Depths.Max = v.GetInt(KeyDepthMax)
	c.Folds = v.GetInt(KeyFolds)
	c.Tree.MaxLeafNodes = v.GetInt(KeyMaxLeafNodes)
	c.Tree.MinSamplesLeaf = v.GetInt(KeyMinSamplesLeaf)
	c.Forest.Trees = v.GetInt(KeyTrees)
	c.Forest.MaxDepth = v.GetInt(KeyForestDepth)
	c.Forest.Seed = v.GetUint64(KeyForestSeed)
	c.Positive = v.GetInt(KeyPositive)
	c.Models.Dir = v.GetString(KeyModelsDir)
	c.Models.Pattern = v.GetString(KeyModelsPattern)
	c.ReportPath = v.GetString(KeyReportPath)
	c.MetricsTextfile = v.GetString(KeyMetricsTextfile)

	level, err := ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}
	c.LogLevel = level

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Dataset.Source == "" {
		errs = append(errs, fmt.Errorf("%w: %s is empty", ErrInvalid, KeySource))
	}
	if c.Dataset.Target == "" {
		errs = append(errs, fmt.Errorf("%w: %s is empty", ErrInvalid, KeyTarget))
	}
	if c.Split.TestFraction <= 0 || c.Split.TestFraction >= 1 {
		errs = append(errs, fmt.Errorf("%w: %s must be in (0,1), got %g", ErrInvalid, KeyTestFraction, c.Split.TestFraction))
	}
	if c.Depths.Min < 1 || c.Depths.Max < c.Depths.Min {
		errs = append(errs, fmt.Errorf("%w: depths must satisfy 1 <= min <= max, got %d..%d", ErrInvalid, c.Depths.Min, c.Depths.Max))
	}
	if c.Folds < 2 {
		errs = append(errs, fmt.Errorf("%w: %s must be at least 2, got %d", ErrInvalid, KeyFolds, c.Folds))
	}
	if c.Tree.MaxLeafNodes < 0 || c.Tree.MinSamplesLeaf < 0 {
		errs = append(errs, fmt.Errorf("%w: tree limits must not be negative", ErrInvalid))
	}
	if c.Forest.Trees < 1 {
		errs = append(errs, fmt.Errorf("%w: %s must be at least 1, got %d", ErrInvalid, KeyTrees, c.Forest.Trees))
	}
	if c.Forest.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("%w: %s must not be negative", ErrInvalid, KeyForestDepth))
	}
	if !strings.Contains(c.Models.Pattern, "%d") {
		errs = append(errs, fmt.Errorf("%w: %s must contain %%d, got %q", ErrInvalid, KeyModelsPattern, c.Models.Pattern))
	}
	return errors.Join(errs...)
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %s %q (expected debug|info|warn|error)", ErrInvalid, KeyLogLevel, s)
	}
	return level, nil
}
