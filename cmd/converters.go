package cmd

import (
	"fmt"

	"github.com/josephlewis42/qicmd/core/macro"
	"github.com/spf13/cobra"
)

var convertersCmd = &cobra.Command{
	Use:   "converters",
	Short: "List the pipeline steps and generators macros can use.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		fmt.Fprintln(w, "Steps:")
		for _, key := range macro.Keys() {
			fmt.Fprintf(w, "  %s\n", key)
		}

		fmt.Fprintln(w, "Generators:")
		for _, name := range macro.Generators() {
			fmt.Fprintf(w, "  %s%s()\n", macro.GeneratorSigil, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertersCmd)
}
