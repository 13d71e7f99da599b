package cmd

import (
	"os"
	"path/filepath"

	"github.com/josephlewis42/qicmd/core/config"
	"github.com/josephlewis42/qicmd/core/logger"
	"github.com/spf13/cobra"
)

var (
	cfgPath    string
	logLevel   string
	recordPath string
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".qicmd")
}

func loadConfig(cmd *cobra.Command) (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	// The flag wins over the configuration.
	if logLevel == "" {
		logger.Configure(configuration.LogLevel, cmd.ErrOrStderr())
	}

	return configuration, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qicmd [SCRIPT.qi ...]",
	Short: "A command shell with inline value conversions.",
	Long: `qicmd runs command lines after expanding $[Type: value => Step] macros in them.

Without arguments it starts an interactive shell, otherwise each argument is
run as a script.`,
	Args: cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Configure(logLevel, cmd.ErrOrStderr())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if len(args) > 0 {
			return runScripts(cmd, args)
		}
		return runInteractive(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "diagnostic log level (debug|info|warn|error), defaults to the config's log_level")
	rootCmd.Flags().StringVar(&recordPath, "record", "", "record the session to an asciicast file")
}
