package cmd

import (
	"fmt"
	"strings"

	"github.com/josephlewis42/qicmd/core/macro"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var showExpansions bool

var expandCmd = &cobra.Command{
	Use:   "expand LINE ...",
	Short: "Print a line with its macros expanded, without running it.",
	Long: `Expands every $[Type: value => Step ...] span in the line and prints the result.

  qicmd expand 'timeout $[Time: 2m30s => Time.Sec]'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		evaluator := macro.NewEvaluator(nil)
		line, expansions := evaluator.ExpandAll(strings.Join(args, " "))

		if !showExpansions {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		}

		out, err := yaml.Marshal(struct {
			Line       string            `json:"line"`
			Expansions []macro.Expansion `json:"expansions"`
		}{line, expansions})
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)
	expandCmd.Flags().BoolVarP(&showExpansions, "explain", "e", false, "print each span and its result as YAML")
}
