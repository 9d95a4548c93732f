package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/keymap/internal/keymap"
)

var dumpValue string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "List the pairs held in the store",
	Long: `Print every key/value pair of the configured store in key order, as a
table or (with --output json) as JSON. Most useful with --store sqlite,
where pairs outlive a single run.`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVar(&dumpValue, "value", "", "only list pairs with this value")
}

type dumpResponse struct {
	Pairs []keymap.Pair `json:"pairs"`
	Count int           `json:"count"`
}

func runDump(cmd *cobra.Command, args []string) error {
	store, err := env.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var pairs []keymap.Pair
	if cmd.Flags().Changed("value") {
		pairs, err = keymap.FindByValue(store, dumpValue)
	} else {
		pairs, err = store.All()
	}
	if err != nil {
		return fmt.Errorf("failed to list pairs: %w", err)
	}

	out := cmd.OutOrStdout()
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(dumpResponse{Pairs: pairs, Count: len(pairs)}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil

	case "table":
		if len(pairs) == 0 {
			fmt.Fprintln(out, "No keys stored")
			return nil
		}

		table := tablewriter.NewWriter(out)
		table.Header("Key", "Value")
		for _, p := range pairs {
			if err := table.Append(p.Key, p.Value); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
		fmt.Fprintf(out, "\nTotal keys: %d\n", len(pairs))
		return nil

	default:
		return fmt.Errorf("unknown output format %q (expected table or json)", outputFormat)
	}
}
