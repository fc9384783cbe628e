package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valksor/go-selfup/internal/config"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Print the effective configuration",
	GroupID: "info",
	Long: `Print the configuration selfup would use, with defaults filled in and
tokens masked. The output can be saved as a starting selfup.toml.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configFormat, "format", "f", string(config.FormatTOML),
		"Output format (toml or yaml)")
}

func runConfig(cmd *cobra.Command, args []string) error {
	format := config.Format(configFormat)
	if format != config.FormatTOML && format != config.FormatYAML {
		return fmt.Errorf("%w: unknown format %q", config.ErrInvalidConfig, configFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := cfg.Encode(format)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "# loaded from %s\n", cfg.Path())
	_, _ = out.Write(data)
	return nil
}
