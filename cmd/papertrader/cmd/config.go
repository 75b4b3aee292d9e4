package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/config"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage papertrader configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  papertrader config init --output papertrader.yaml
  papertrader config validate --file papertrader.yaml`,
	}

	var output string
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(w, "\nEdit the file and run with:")
			fmt.Fprintf(w, "  papertrader --config %s portfolio\n", output)
			return nil
		},
	}
	configInitCmd.Flags().StringVarP(&output, "output", "o", DefaultConfigFile, "output config file path")

	var path string
	configValidateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = o.configPath
			}
			if path == "" {
				path = DefaultConfigFile
			}
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(w, "  Store:   %s %s\n", cfg.Store.Type, cfg.Store.Path)
			fmt.Fprintf(w, "  Journal: %s\n", cfg.Journal.Type)
			fmt.Fprintf(w, "  Quotes:  %s\n", cfg.Quotes.Provider)
			return nil
		},
	}
	configValidateCmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (default --config or ./papertrader.yaml)")

	configCmd.AddCommand(configInitCmd, configValidateCmd)
	return configCmd
}
