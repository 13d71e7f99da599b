package cmd

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/qicmd/core/calc"
	"github.com/spf13/cobra"
)

var calcCmd = &cobra.Command{
	Use:   "calc EXPRESSION ...",
	Short: "Evaluate an arithmetic expression.",
	Long: `Evaluates + - * / and ^ with parentheses, ^ binds right to left.

Arguments are joined with spaces, so "calc (3 + 2) * 4" needs no quoting
beyond what your shell requires.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		value, err := calc.Evaluate(strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), calc.Format(value))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calcCmd)
}
