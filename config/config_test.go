package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/assocmem"
	"github.com/hupe1980/assocmem/arbiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), f)

	cfg, err := f.ExperimentConfig()
	require.NoError(t, err)
	assert.Equal(t, assocmem.DefaultConfig(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp.toml")
	data := `
[experiment]
number = 2
labels_per_group = 2
sizes = [8, 16]
mode = "random"
tolerance = 3

[output]
store = "s3://bucket/runs"

[output.minio]
endpoint = "localhost:9000"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("AMEXP_EXPERIMENT_FILL_SIZE", "128")
	t.Setenv("AMEXP_LOG_FORMAT", "json")

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, f.Experiment.Number)
	assert.Equal(t, 2, f.Experiment.LabelsPerGroup)
	assert.Equal(t, []int{8, 16}, f.Experiment.Sizes)
	assert.Equal(t, 128, f.Experiment.FillSize)
	assert.Equal(t, 640, f.Experiment.Domain)
	assert.Equal(t, "s3://bucket/runs", f.Output.Store)
	assert.Equal(t, "localhost:9000", f.Output.MinIO.Endpoint)
	assert.Equal(t, "json", f.Log.Format)

	cfg, err := f.ExperimentConfig()
	require.NoError(t, err)
	assert.Equal(t, arbiter.Random, cfg.Mode)
	assert.Equal(t, 3, cfg.Tolerance)
	assert.Equal(t, 5, cfg.Groups())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestExperimentConfig_Invalid(t *testing.T) {
	f := Default()
	f.Experiment.Mode = "vote"
	_, err := f.ExperimentConfig()
	assert.ErrorIs(t, err, assocmem.ErrInvalidConfig)

	f = Default()
	f.Experiment.Folds = 0
	_, err = f.ExperimentConfig()
	assert.ErrorIs(t, err, assocmem.ErrInvalidConfig)

	f = Default()
	f.Experiment.TrainingPercent = 1.5
	_, err = f.ExperimentConfig()
	assert.ErrorIs(t, err, assocmem.ErrInvalidConfig)
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	f := Default()
	f.Experiment.Sizes = []int{2, 4}
	f.Output.SQLDriver = "sqlite3"
	f.Output.SQLDSN = "results.db"
	require.NoError(t, WriteFile(path, f, false))

	assert.Error(t, WriteFile(path, f, false))
	require.NoError(t, WriteFile(path, f, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, f, parsed)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, f, loaded)
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, Default()))
	out := buf.String()
	assert.Contains(t, out, "[experiment]")
	assert.Contains(t, out, "fill_size = 64")
	assert.NotContains(t, out, "sql_dsn")
}

func TestLogger(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)

	f := Default()
	l, err := f.Logger()
	require.NoError(t, err)
	assert.NotNil(t, l)

	f.Log.Format = "xml"
	_, err = f.Logger()
	assert.Error(t, err)
}

func TestResourceConfig(t *testing.T) {
	f := Default()
	f.Resources.MemoryLimitBytes = 1 << 30
	f.Resources.IOLimitBytesPerSec = 1 << 20

	rc := f.ResourceConfig(3)
	assert.Equal(t, int64(1<<30), rc.MemoryLimitBytes)
	assert.Equal(t, int64(3), rc.MaxWorkers)
	assert.Equal(t, int64(1<<20), rc.IOLimitBytesPerSec)
}
