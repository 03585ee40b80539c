package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, DefaultSource, c.Dataset.Source)
	assert.Equal(t, "Diabetes_binary", c.Dataset.Target)
	assert.InDelta(t, 0.2, c.Split.TestFraction, 1e-12)
	assert.Equal(t, uint64(42), c.Split.Seed)
	assert.Equal(t, 2, c.Depths.Min)
	assert.Equal(t, 8, c.Depths.Max)
	assert.Equal(t, 10, c.Folds)
	assert.Equal(t, 100, c.Forest.Trees)
	assert.Zero(t, c.Forest.MaxDepth)
	assert.Equal(t, 1, c.Positive)
	assert.Equal(t, "depth_%d.onnx", c.Models.Pattern)
	assert.Equal(t, slog.LevelInfo, c.LogLevel)
	assert.Empty(t, c.ReportPath)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dtbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  source: testdata/diabetes.csv
split:
  test-fraction: 0.3
depths:
  min: 1
  max: 4
cv:
  folds: 5
log:
  level: debug
report:
  path: out/report.yaml
`), 0o600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "testdata/diabetes.csv", c.Dataset.Source)
	assert.InDelta(t, 0.3, c.Split.TestFraction, 1e-12)
	assert.Equal(t, 1, c.Depths.Min)
	assert.Equal(t, 4, c.Depths.Max)
	assert.Equal(t, 5, c.Folds)
	assert.Equal(t, slog.LevelDebug, c.LogLevel)
	assert.Equal(t, "out/report.yaml", c.ReportPath)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DTBENCH_CV_FOLDS", "3")
	t.Setenv("DTBENCH_LOG_LEVEL", "warn")

	v := newViper()
	v.SetEnvPrefix("DTBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Folds)
	assert.Equal(t, slog.LevelWarn, c.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"fraction zero", KeyTestFraction, 0.0},
		{"fraction one", KeyTestFraction, 1.0},
		{"depth zero", KeyDepthMin, 0},
		{"depth inverted", KeyDepthMax, 1},
		{"one fold", KeyFolds, 1},
		{"no trees", KeyTrees, 0},
		{"negative forest depth", KeyForestDepth, -1},
		{"negative leaves", KeyMaxLeafNodes, -2},
		{"empty target", KeyTarget, ""},
		{"pattern without depth", KeyModelsPattern, "model.onnx"},
		{"log level", KeyLogLevel, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		" warn": slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(s)
		require.NoError(t, err, s)
		assert.Equal(t, want, got, s)
	}
}
