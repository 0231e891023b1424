// Package config loads the amexp command configuration from a TOML file,
// AMEXP_ environment variables and command-line flags.
package config

// File is the persistent configuration, laid out in TOML sections.
type File struct {
	Experiment ExperimentConfig `toml:"experiment"`
	Data       DataConfig       `toml:"data"`
	Output     OutputConfig     `toml:"output"`
	Resources  ResourcesConfig  `toml:"resources"`
	Log        LogConfig        `toml:"log"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// ExperimentConfig mirrors assocmem.Config plus run-level settings.
type ExperimentConfig struct {
	// Number tags output file names, e.g. main_behaviours--1.
	Number          int     `toml:"number"`
	Folds           int     `toml:"folds"`
	Domain          int     `toml:"domain"`
	Sizes           []int   `toml:"sizes"`
	Labels          int     `toml:"labels"`
	LabelsPerGroup  int     `toml:"labels_per_group"`
	Tolerance       int     `toml:"tolerance"`
	Mode            string  `toml:"mode"`
	TrainingPercent float64 `toml:"training_percent"`
	FillingPercent  float64 `toml:"filling_percent"`
	FillSize        int     `toml:"fill_size"`
	Workers         int     `toml:"workers"`
	Seed            uint64  `toml:"seed"`
}

// DataConfig locates the per-fold feature and label files.
type DataConfig struct {
	Dir string `toml:"dir"`
}

// OutputConfig selects where reports and snapshots go.
type OutputConfig struct {
	// Store is a local directory, s3://bucket/prefix or minio://bucket/prefix.
	Store  string `toml:"store"`
	Header bool   `toml:"header"`

	// SaveBank writes the final bank of every fill fold.
	SaveBank    bool   `toml:"save_bank"`
	Compression string `toml:"compression"`

	SQLDriver string `toml:"sql_driver,omitempty"`
	SQLDSN    string `toml:"sql_dsn,omitempty"`

	MinIO MinIOConfig `toml:"minio"`
}

// MinIOConfig holds the connection settings used by minio:// stores.
type MinIOConfig struct {
	Endpoint  string `toml:"endpoint,omitempty"`
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
	Secure    bool   `toml:"secure"`
}

// ResourcesConfig bounds memory and report IO. Zero means unlimited.
type ResourcesConfig struct {
	MemoryLimitBytes   int64 `toml:"memory_limit_bytes"`
	IOLimitBytesPerSec int64 `toml:"io_limit_bytes_per_sec"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	// Format is "text" or "json".
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address of the /metrics endpoint; empty disables it.
	Listen string `toml:"listen,omitempty"`
}
