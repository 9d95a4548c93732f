package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psantana5/keymap/pkg/util"
)

var dateCmd = &cobra.Command{
	Use:   "date",
	Short: "Print the current date as date(1) does",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), util.DateString())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dateCmd)
}
