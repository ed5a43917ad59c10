package common

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/transit-ga/pkg/config"
)

func parseFlags(t *testing.T, args ...string) *CommonFlags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	flags := RegisterCommonFlags(fs)
	require.NoError(t, fs.Parse(args))
	return flags
}

func TestApplyOverrides_OnlyExplicitFlags(t *testing.T) {
	flags := parseFlags(t, "-population", "20", "-zone-lambda", "2", "-output", "out")

	cfg := config.NewDefaultExperimentConfig()
	cfg.Seed = 99
	flags.ApplyOverrides(cfg)

	assert.Equal(t, 20, cfg.Population.Size)
	assert.Equal(t, 2.0, cfg.Fitness.Weights.Zone)
	assert.Equal(t, "out", cfg.OutputDir)

	assert.Equal(t, int64(99), cfg.Seed)
	assert.Equal(t, config.DefaultGenerations, cfg.Population.Generations)
	assert.Equal(t, -1.0, cfg.Fitness.Weights.ExtremeTrips)
}

func TestApplyOverrides_ZeroValuesApplied(t *testing.T) {
	flags := parseFlags(t, "-extreme-trip-lambda", "0", "-seed", "0")

	cfg := config.NewDefaultExperimentConfig()
	flags.ApplyOverrides(cfg)

	assert.Zero(t, cfg.Fitness.Weights.ExtremeTrips)
	assert.Zero(t, cfg.Seed)
}

func TestCommonFlags_Validate(t *testing.T) {
	assert.NoError(t, parseFlags(t).Validate())

	err := parseFlags(t, "-v", "5", "-fv", "-1").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation errors")

	err = parseFlags(t, "-config", filepath.Join(t.TempDir(), "missing.yml")).Validate()
	assert.ErrorContains(t, err, "does not exist")
}

func TestLoadExperiment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experiment.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: file-run\nnetwork_file: net.json\npopulation:\n  size: 6\n"), 0644))

	flags := parseFlags(t, "-config", path, "-generations", "3")
	cfg, err := LoadExperiment(flags)
	require.NoError(t, err)

	assert.Equal(t, "file-run", cfg.Name)
	assert.Equal(t, filepath.Join(dir, "net.json"), cfg.NetworkFile)
	assert.Equal(t, 6, cfg.Population.Size)
	assert.Equal(t, 3, cfg.Population.Generations)
}

func TestLoadExperiment_Invalid(t *testing.T) {
	flags := parseFlags(t, "-population", "0")
	_, err := LoadExperiment(flags)
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	loaded, err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, loaded)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("GA_TEST_COMMON_VALUE=42\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GA_TEST_COMMON_VALUE") })

	loaded, err = LoadEnvFile(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "42", os.Getenv("GA_TEST_COMMON_VALUE"))
}
