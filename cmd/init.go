package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/josephlewis42/qicmd/core/config"
	"github.com/spf13/cobra"
)

// initCmd intializes the shell configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration directory.",
	Long:  `Writes the default config.yaml and startup script to the --config directory, keeping existing files.`,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "init"})

		_, err := config.Initialize(cfgPath, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
