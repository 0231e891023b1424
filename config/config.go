package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hupe1980/assocmem"
	"github.com/hupe1980/assocmem/arbiter"
	"github.com/hupe1980/assocmem/resource"
	"github.com/spf13/viper"
)

const (
	// DefaultFileName is looked up in the working directory when no
	// explicit config path is given.
	DefaultFileName = "amexp.toml"

	// EnvPrefix prefixes every environment override, e.g.
	// AMEXP_EXPERIMENT_FILL_SIZE=128.
	EnvPrefix = "AMEXP"
)

// Default returns the configuration of the reference runs.
func Default() *File {
	c := assocmem.DefaultConfig()
	return &File{
		Experiment: ExperimentConfig{
			Number:          1,
			Folds:           10,
			Domain:          c.Domain,
			Sizes:           c.Sizes,
			Labels:          c.Labels,
			LabelsPerGroup:  c.LabelsPerGroup,
			Tolerance:       c.Tolerance,
			Mode:            c.Mode.String(),
			TrainingPercent: c.TrainingPercent,
			FillingPercent:  c.FillingPercent,
			FillSize:        c.FillSize,
			Workers:         c.Workers,
			Seed:            c.Seed,
		},
		Data:   DataConfig{Dir: "runs"},
		Output: OutputConfig{Store: "runs", Compression: "zstd"},
		Log:    LogConfig{Format: "text", Level: "info"},
	}
}

// InitViper creates a viper instance with every default registered, the
// config file read and AMEXP_ environment variables bound.
//
// Precedence, highest first: flags bound later by the caller, environment,
// config file, defaults. A missing config file is not an error unless path
// names it explicitly.
func InitViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFileName, ".toml"))
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" || !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func setDefaults(v *viper.Viper, d *File) {
	v.SetDefault("experiment.number", d.Experiment.Number)
	v.SetDefault("experiment.folds", d.Experiment.Folds)
	v.SetDefault("experiment.domain", d.Experiment.Domain)
	v.SetDefault("experiment.sizes", d.Experiment.Sizes)
	v.SetDefault("experiment.labels", d.Experiment.Labels)
	v.SetDefault("experiment.labels_per_group", d.Experiment.LabelsPerGroup)
	v.SetDefault("experiment.tolerance", d.Experiment.Tolerance)
	v.SetDefault("experiment.mode", d.Experiment.Mode)
	v.SetDefault("experiment.training_percent", d.Experiment.TrainingPercent)
	v.SetDefault("experiment.filling_percent", d.Experiment.FillingPercent)
	v.SetDefault("experiment.fill_size", d.Experiment.FillSize)
	v.SetDefault("experiment.workers", d.Experiment.Workers)
	v.SetDefault("experiment.seed", d.Experiment.Seed)

	v.SetDefault("data.dir", d.Data.Dir)

	v.SetDefault("output.store", d.Output.Store)
	v.SetDefault("output.header", d.Output.Header)
	v.SetDefault("output.save_bank", d.Output.SaveBank)
	v.SetDefault("output.compression", d.Output.Compression)
	v.SetDefault("output.sql_driver", d.Output.SQLDriver)
	v.SetDefault("output.sql_dsn", d.Output.SQLDSN)
	v.SetDefault("output.minio.endpoint", d.Output.MinIO.Endpoint)
	v.SetDefault("output.minio.access_key", d.Output.MinIO.AccessKey)
	v.SetDefault("output.minio.secret_key", d.Output.MinIO.SecretKey)
	v.SetDefault("output.minio.secure", d.Output.MinIO.Secure)

	v.SetDefault("resources.memory_limit_bytes", d.Resources.MemoryLimitBytes)
	v.SetDefault("resources.io_limit_bytes_per_sec", d.Resources.IOLimitBytesPerSec)

	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("metrics.listen", d.Metrics.Listen)
}

// FromViper reads the resolved configuration.
func FromViper(v *viper.Viper) *File {
	return &File{
		Experiment: ExperimentConfig{
			Number:          v.GetInt("experiment.number"),
			Folds:           v.GetInt("experiment.folds"),
			Domain:          v.GetInt("experiment.domain"),
			Sizes:           v.GetIntSlice("experiment.sizes"),
			Labels:          v.GetInt("experiment.labels"),
			LabelsPerGroup:  v.GetInt("experiment.labels_per_group"),
			Tolerance:       v.GetInt("experiment.tolerance"),
			Mode:            v.GetString("experiment.mode"),
			TrainingPercent: v.GetFloat64("experiment.training_percent"),
			FillingPercent:  v.GetFloat64("experiment.filling_percent"),
			FillSize:        v.GetInt("experiment.fill_size"),
			Workers:         v.GetInt("experiment.workers"),
			Seed:            v.GetUint64("experiment.seed"),
		},
		Data: DataConfig{Dir: v.GetString("data.dir")},
		Output: OutputConfig{
			Store:       v.GetString("output.store"),
			Header:      v.GetBool("output.header"),
			SaveBank:    v.GetBool("output.save_bank"),
			Compression: v.GetString("output.compression"),
			SQLDriver:   v.GetString("output.sql_driver"),
			SQLDSN:      v.GetString("output.sql_dsn"),
			MinIO: MinIOConfig{
				Endpoint:  v.GetString("output.minio.endpoint"),
				AccessKey: v.GetString("output.minio.access_key"),
				SecretKey: v.GetString("output.minio.secret_key"),
				Secure:    v.GetBool("output.minio.secure"),
			},
		},
		Resources: ResourcesConfig{
			MemoryLimitBytes:   v.GetInt64("resources.memory_limit_bytes"),
			IOLimitBytesPerSec: v.GetInt64("resources.io_limit_bytes_per_sec"),
		},
		Log: LogConfig{
			Format: v.GetString("log.format"),
			Level:  v.GetString("log.level"),
		},
		Metrics: MetricsConfig{Listen: v.GetString("metrics.listen")},
	}
}

// Load resolves the configuration from path (optional), the environment
// and defaults.
func Load(path string) (*File, error) {
	v, err := InitViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}

// ExperimentConfig converts the experiment section and validates it.
func (f *File) ExperimentConfig() (assocmem.Config, error) {
	mode, err := arbiter.ParseMode(f.Experiment.Mode)
	if err != nil {
		return assocmem.Config{}, fmt.Errorf("%w: %w", assocmem.ErrInvalidConfig, err)
	}

	e := f.Experiment
	cfg := assocmem.Config{
		Domain:          e.Domain,
		Sizes:           append([]int(nil), e.Sizes...),
		Labels:          e.Labels,
		LabelsPerGroup:  e.LabelsPerGroup,
		Tolerance:       e.Tolerance,
		Mode:            mode,
		TrainingPercent: e.TrainingPercent,
		FillingPercent:  e.FillingPercent,
		FillSize:        e.FillSize,
		Workers:         e.Workers,
		Seed:            e.Seed,
	}

	if err := cfg.Validate(); err != nil {
		return assocmem.Config{}, err
	}
	if e.Folds <= 0 {
		return assocmem.Config{}, fmt.Errorf("%w: folds must be positive, got %d", assocmem.ErrInvalidConfig, e.Folds)
	}
	return cfg, nil
}

// ResourceConfig converts the resources section for a run with the given
// number of workers.
func (f *File) ResourceConfig(workers int) resource.Config {
	return resource.Config{
		MemoryLimitBytes:   f.Resources.MemoryLimitBytes,
		MaxWorkers:         int64(workers),
		IOLimitBytesPerSec: f.Resources.IOLimitBytesPerSec,
	}
}

// ParseLevel resolves debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Logger builds the logger selected by the log section.
func (f *File) Logger() (*assocmem.Logger, error) {
	level, err := ParseLevel(f.Log.Level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(f.Log.Format) {
	case "", "text":
		return assocmem.NewTextLogger(level), nil
	case "json":
		return assocmem.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", f.Log.Format)
	}
}

// Encode writes f as TOML.
func Encode(w io.Writer, f *File) error {
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// WriteFile writes f to path. An existing file is kept unless overwrite
// is set.
func WriteFile(path string, f *File, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, f); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Parse decodes a TOML document over the defaults.
func Parse(data []byte) (*File, error) {
	f := Default()
	if _, err := toml.Decode(string(data), f); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return f, nil
}
