package cmd

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/psantana5/keymap/pkg/util"
)

var splitQuote bool

var splitCmd = &cobra.Command{
	Use:   "split <delimiters> [line...]",
	Short: "Split lines on runs of delimiter characters",
	Long: `Split each line on any run of the characters in <delimiters> and print
the tokens separated by single spaces. Empty tokens are never produced.
Lines are read from standard input when none are given.

Example:
  keymap split / /usr//local/bin/
  keymap split ':,' 'a:b,c' --quote`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().BoolVar(&splitQuote, "quote", false, "print each token as a quoted Go string")
}

func runSplit(cmd *cobra.Command, args []string) error {
	delimiters := args[0]

	var format func(string) string
	if splitQuote {
		format = strconv.Quote
	}

	out := cmd.OutOrStdout()
	emit := func(line string) {
		tokens := util.Split(line, delimiters)
		env.logger.Debug("split", map[string]interface{}{"tokens": len(tokens)})
		fmt.Fprintln(out, util.JoinSeq(tokens, format))
	}

	if len(args) > 1 {
		for _, line := range args[1:] {
			emit(line)
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		emit(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
