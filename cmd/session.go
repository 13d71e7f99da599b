package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/qicmd/core"
	"github.com/josephlewis42/qicmd/core/config"
	"github.com/josephlewis42/qicmd/core/logger"
	"github.com/josephlewis42/qicmd/core/ttylog"
	"github.com/spf13/cobra"
)

type listCloser []io.Closer

func (lc listCloser) Close() error {
	var lastErr error
	for _, v := range lc {
		if err := v.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && readline.IsTerminal(int(f.Fd()))
}

// newSession creates a shell wired to the command's streams, the event log
// and, if requested, a session recording.
func newSession(cmd *cobra.Command, cfg *config.Configuration) (*core.Shell, io.Closer, error) {
	var toClose listCloser

	stdin, stdout, stderr := cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()
	opts := core.ShellOptions{
		Stdin:      stdin,
		Stdout:     stdout,
		Stderr:     stderr,
		IsTerminal: isTerminal(stdin) && isTerminal(stdout),
	}

	if cfg.RecordEvents {
		fd, err := cfg.OpenAppLog()
		if err != nil {
			return nil, nil, fmt.Errorf("opening event log: %w", err)
		}
		toClose = append(toClose, fd)
		opts.Events = logger.NewJSONLinesLogRecorder(fd).NewSession()
	}

	if recordPath != "" {
		fd, err := os.Create(recordPath)
		if err != nil {
			toClose.Close()
			return nil, nil, err
		}
		toClose = append(toClose, fd)

		recorder := ttylog.NewRecorder(stdin, stdout, stderr, ttylog.NewAsciicastLogSink(fd, os.Getenv("SHELL")))
		opts.Stdin, opts.Stdout, opts.Stderr = recorder.Stdin(), recorder.Stdout(), recorder.Stderr()
	}

	shell, err := core.NewShell(cfg, opts)
	if err != nil {
		toClose.Close()
		return nil, nil, err
	}

	logger.Debug("session started", "session", opts.Events.SessionID(), "terminal", opts.IsTerminal)
	return shell, toClose, nil
}

func runInteractive(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	shell, closer, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := shell.RunStartupScript(cmd.Context()); err != nil {
		logger.Warn("couldn't run startup script", "path", cfg.StartupScript, "err", err)
	}

	return shell.Interact(cmd.Context())
}

func runScripts(cmd *cobra.Command, paths []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	shell, closer, err := newSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	for _, path := range paths {
		if shell.Quit {
			break
		}
		if err := shell.RunFile(cmd.Context(), path); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
	}
	return nil
}
