package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT.qi ...",
	Short: "Run script files.",
	Long: `Runs each script line by line as if it were typed into the shell.

Functions defined by one script are visible to the scripts after it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runScripts(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
