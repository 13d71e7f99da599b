package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/josephlewis42/qicmd/core/config"
	"github.com/josephlewis42/qicmd/core/logger"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ExecRequest describes a line handed to the system shell.
type ExecRequest struct {
	// Line is the fully expanded command line.
	Line string
	// Dir is the session's working directory.
	Dir string
	// Env holds KEY=VALUE pairs.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Interactive is set when the command should be attached to the terminal
	// rather than having its input closed.
	Interactive bool
}

// Executor runs command lines that aren't builtins or functions.
type Executor interface {
	// Execute runs the request and returns its exit status. An error means the
	// command couldn't be started at all.
	Execute(ctx context.Context, req ExecRequest) (int, error)
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(ctx context.Context, req ExecRequest) (int, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, req ExecRequest) (int, error) {
	return f(ctx, req)
}

var _ Executor = (ExecutorFunc)(nil)

// NewExecutor creates the executor named by the configuration.
func NewExecutor(cfg *config.Configuration) (Executor, error) {
	switch cfg.Executor {
	case config.ExecutorProcess:
		return &ProcessExecutor{Shell: cfg.Shell, Args: cfg.ShellArgs}, nil
	case config.ExecutorInterp:
		return &InterpExecutor{}, nil
	default:
		return nil, fmt.Errorf("unknown executor %q", cfg.Executor)
	}
}

// ProcessExecutor runs each line with an external shell program.
type ProcessExecutor struct {
	// Shell is the program to run, e.g. /bin/sh.
	Shell string
	// Args come before the line, e.g. -c.
	Args []string
}

var _ Executor = (*ProcessExecutor)(nil)

// Execute implements Executor.
func (p *ProcessExecutor) Execute(ctx context.Context, req ExecRequest) (int, error) {
	args := append(append([]string(nil), p.Args...), req.Line)
	cmd := exec.CommandContext(ctx, p.Shell, args...)
	cmd.Dir = req.Dir
	cmd.Env = req.Env
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr
	if req.Interactive {
		cmd.Stdin = req.Stdin
	}

	logger.Debug("running process", "shell", p.Shell, "args", args, "dir", req.Dir, "interactive", req.Interactive)

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, err
	}
}

// InterpExecutor runs each line with an in-process POSIX shell interpreter.
type InterpExecutor struct{}

var _ Executor = (*InterpExecutor)(nil)

// Execute implements Executor.
func (*InterpExecutor) Execute(ctx context.Context, req ExecRequest) (int, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(req.Line), "")
	if err != nil {
		return 2, fmt.Errorf("syntax error: %w", err)
	}

	var stdin io.Reader
	if req.Interactive {
		stdin = req.Stdin
	}

	runner, err := interp.New(
		interp.StdIO(stdin, req.Stdout, req.Stderr),
		interp.Dir(req.Dir),
		interp.Env(expand.ListEnviron(req.Env...)),
	)
	if err != nil {
		return -1, err
	}

	logger.Debug("interpreting line", "line", req.Line, "dir", req.Dir)

	err = runner.Run(ctx, prog)
	if status, ok := interp.IsExitStatus(err); ok {
		return int(status), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}
