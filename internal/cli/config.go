package cli

import (
	"fmt"

	"github.com/hupe1980/assocmem/config"
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage the amexp configuration file.

The file is TOML with the sections experiment, data, output, resources,
log and metrics. Every key can be overridden by an AMEXP_ environment
variable, e.g. AMEXP_EXPERIMENT_FILL_SIZE=128, and by command flags.

Examples:
  amexp config init
  amexp config init --force custom.toml
  amexp config show --config custom.toml`

const configShortDesc string = "Manage the amexp configuration file"

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(root))

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultFileName
			if len(args) == 1 {
				path = args[0]
			}

			if err := config.WriteFile(path, config.Default(), force); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

func newConfigShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := root.load(cmd)
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), file)
		},
	}
}
