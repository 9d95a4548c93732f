package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psantana5/keymap/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect keymap configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration as YAML",
	Long: `Print the configuration after merging defaults, the config file,
KEYMAP_* environment variables and flags. The output is a valid config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(cmd, env.cfg)
	},
}

var configDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the built-in defaults as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printConfig(cmd, config.Default())
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configDefaultsCmd)
}

func printConfig(cmd *cobra.Command, cfg *config.Config) error {
	out, err := cfg.YAML()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
