package cmd

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psantana5/keymap/pkg/util"
)

var convertType string

// converters parse text as a concrete type and render it back
var converters = map[string]func(string) (string, error){
	"int":    roundTrip[int],
	"uint":   roundTrip[uint],
	"float":  roundTrip[float64],
	"bool":   roundTrip[bool],
	"string": roundTrip[string],
	"ip":     roundTrip[netip.Addr],
}

var convertCmd = &cobra.Command{
	Use:   "convert --type <type> <text>...",
	Short: "Parse text as a typed value and print it back",
	Long: `Parse each argument as a value of --type and print its canonical text.
The whole argument must be consumed, so "12abc" is not an int. Integers are
read as plain decimal: "010" is 10 and "0x1f" is rejected. Values that
fail to parse are reported on stderr and the exit status becomes 1.

Types: ` + strings.Join(converterNames(), ", ") + `

Example:
  keymap convert --type int 42 010 12abc
  keymap convert --type ip 10.0.0.1`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertType, "type", "int", "target type")
}

func roundTrip[T any](text string) (string, error) {
	value, err := util.FromString[T](text)
	if err != nil {
		return "", err
	}
	return util.ToString(value), nil
}

func converterNames() []string {
	names := make([]string, 0, len(converters))
	for name := range converters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runConvert(cmd *cobra.Command, args []string) error {
	convert, ok := converters[convertType]
	if !ok {
		return fmt.Errorf("unknown type %q (expected one of %s)", convertType, strings.Join(converterNames(), ", "))
	}

	for _, text := range args {
		out, err := convert(text)
		if err != nil {
			env.info.Complainf("%v", err)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	return nil
}
