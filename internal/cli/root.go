// Package cli implements the amexp command tree.
package cli

import (
	"github.com/hupe1980/assocmem/config"
	"github.com/spf13/cobra"
)

const rootLongDesc string = `Run associative memory experiments over cross-validation folds.

Each fold is read from the data directory as a pair of NumPy files
(features-NNN.npy and labels-NNN.npy). Results are written as CSV tables
to a local directory, s3://bucket/prefix or minio://bucket/prefix, and
optionally to a SQL database.

Settings are resolved from flags, AMEXP_ environment variables, the config
file (amexp.toml in the working directory unless --config is given) and
built-in defaults, in that order.

Examples:
  amexp config init
  amexp sizes --data-dir runs --folds 10
  amexp fill --sql-driver sqlite3 --sql-dsn results.db`

const rootShortDesc string = "Associative memory experiment runner"

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-format":     "log.format",
	"log-level":      "log.level",
	"data-dir":       "data.dir",
	"store":          "output.store",
	"header":         "output.header",
	"sql-driver":     "output.sql_driver",
	"sql-dsn":        "output.sql_dsn",
	"save-bank":      "output.save_bank",
	"compression":    "output.compression",
	"experiment":     "experiment.number",
	"folds":          "experiment.folds",
	"sizes":          "experiment.sizes",
	"mode":           "experiment.mode",
	"tolerance":      "experiment.tolerance",
	"fill-size":      "experiment.fill_size",
	"workers":        "experiment.workers",
	"seed":           "experiment.seed",
	"memory-limit":   "resources.memory_limit_bytes",
	"metrics-listen": "metrics.listen",
}

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the amexp command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "amexp",
		Short:         rootShortDesc,
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to the config file (default ./"+config.DefaultFileName+")")
	pf.String("log-format", "text", "Log format: text or json")
	pf.String("log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(newSizesCmd(opts))
	cmd.AddCommand(newFillCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

// load resolves the configuration for cmd, with every changed flag taking
// precedence over the environment and the config file.
func (o *rootOptions) load(cmd *cobra.Command) (*config.File, error) {
	v, err := config.InitViper(o.configPath)
	if err != nil {
		return nil, err
	}

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	return config.FromViper(v), nil
}

// addRunFlags registers the flags shared by the experiment commands.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("data-dir", "runs", "Directory holding the fold files")
	f.String("store", "runs", "Output location: directory, s3://bucket/prefix or minio://bucket/prefix")
	f.Bool("header", false, "Write a header row to every CSV table")
	f.String("sql-driver", "", "database/sql driver for result rows: sqlite3 or mysql")
	f.String("sql-dsn", "", "Data source name for --sql-driver")
	f.Int("experiment", 1, "Experiment number used in output names")
	f.Int("folds", 10, "Number of folds to load")
	f.String("mode", "entropy", "Arbitration mode: entropy or random")
	f.Int("tolerance", 0, "Cells a probe may miss and still be recognized")
	f.Int("workers", 4, "Concurrent units (0 uses GOMAXPROCS)")
	f.Uint64("seed", 1, "Seed of the random arbiter")
	f.Int64("memory-limit", 0, "Memory limit for banks in bytes (0 is unlimited)")
	f.String("metrics-listen", "", "Serve Prometheus metrics on this address")
}
