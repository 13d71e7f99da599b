package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abiosoft/readline"
	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/qicmd/core/config"
	"github.com/josephlewis42/qicmd/core/functions"
	"github.com/josephlewis42/qicmd/core/logger"
	"github.com/josephlewis42/qicmd/core/macro"
	"github.com/spf13/afero"
)

const (
	Version = "0.3"

	KindBuiltin  = "builtin"
	KindFunction = "function"
	KindExternal = "external"
)

// ErrCallDepthExceeded is returned when nested function calls go deeper than
// the configured limit.
var ErrCallDepthExceeded = errors.New("maximum function call depth exceeded")

// ShellOptions holds the collaborators of a Shell. Zero values get the
// process's own.
type ShellOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Fs is used to check directories and read scripts.
	Fs afero.Fs
	// Dir is the initial working directory.
	Dir string
	// Env holds the KEY=VALUE pairs passed to commands.
	Env []string

	// Executor runs lines that aren't builtins or functions. Defaults to the
	// one named in the configuration.
	Executor Executor
	// Clock is used by the time and date converters.
	Clock func() time.Time
	// Events receives session events, may be nil.
	Events *logger.SessionLogger

	// IsTerminal is set when the session is attached to a terminal.
	IsTerminal bool
}

// Shell is a single qicmd session.
type Shell struct {
	config    *config.Configuration
	fs        afero.Fs
	env       *Env
	executor  Executor
	evaluator *macro.Evaluator
	functions *functions.Table
	events    *logger.SessionLogger
	colors    *ColorPrinter

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	isTerminal bool
	dir        string
	lastRet    int
	history    []string

	// Readline is set while the shell is interactive.
	Readline *readline.Instance

	// Set to true to quit the shell
	Quit bool
}

// NewShell creates a session. A nil configuration uses the defaults.
func NewShell(cfg *config.Configuration, opts ShellOptions) (*Shell, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	if opts.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		opts.Dir = wd
	}
	if opts.Executor == nil {
		executor, err := NewExecutor(cfg)
		if err != nil {
			return nil, err
		}
		opts.Executor = executor
	}

	s := &Shell{
		config:     cfg,
		fs:         opts.Fs,
		env:        NewEnvFromList(opts.Env),
		executor:   opts.Executor,
		evaluator:  macro.NewEvaluator(macro.NewRegistry(opts.Clock)),
		functions:  functions.NewTable(),
		events:     opts.Events,
		colors:     NewColorPrinter(cfg.Color, opts.IsTerminal),
		stdin:      opts.Stdin,
		stdout:     opts.Stdout,
		stderr:     opts.Stderr,
		isTerminal: opts.IsTerminal,
	}
	s.setDir(opts.Dir)
	s.init()

	return s, nil
}

// init fills in the variables the prompt uses when the environment lacks them.
func (s *Shell) init() {
	if s.env.Getenv(EnvUser) == "" {
		if u, err := user.Current(); err == nil {
			s.env.Setenv(EnvUser, u.Username)
		}
	}
	if s.env.Getenv(EnvHostname) == "" {
		if host, err := os.Hostname(); err == nil {
			s.env.Setenv(EnvHostname, host)
		}
	}
}

// Stdin gets the session's input.
func (s *Shell) Stdin() io.Reader { return s.stdin }

// Stdout gets the session's output.
func (s *Shell) Stdout() io.Writer { return s.stdout }

// Stderr gets the session's error output.
func (s *Shell) Stderr() io.Writer { return s.stderr }

// Dir gets the working directory.
func (s *Shell) Dir() string { return s.dir }

// Functions gets the session's function table.
func (s *Shell) Functions() *functions.Table { return s.functions }

// Evaluator gets the macro evaluator lines are expanded with.
func (s *Shell) Evaluator() *macro.Evaluator { return s.evaluator }

// LastStatus gets the exit status of the last builtin or command.
func (s *Shell) LastStatus() int { return s.lastRet }

func (s *Shell) setDir(dir string) {
	s.dir = dir
	s.env.Setenv(EnvPWD, dir)
}

// resolve makes path absolute relative to the working directory, expanding a
// leading ~ to $HOME.
func (s *Shell) resolve(path string) string {
	if home := s.env.Getenv(EnvHome); home != "" && (path == "~" || strings.HasPrefix(path, "~/")) {
		path = home + strings.TrimPrefix(path, "~")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	return filepath.Clean(path)
}

// Execute runs one complete input line. Failures are reported on the
// session's stderr; the returned error is only for callers that need to know
// the line was aborted.
func (s *Shell) Execute(ctx context.Context, line string) error {
	err := s.dispatch(ctx, line, 0)
	if err != nil && ctx.Err() == nil {
		s.reportError(line, err)
	}
	return err
}

func (s *Shell) reportError(line string, err error) {
	fmt.Fprintf(s.stderr, "qicmd: %v\n", err)
	s.record(&logger.ErrorEvent{Context: line, Message: err.Error()})
}

// record writes an event to the session's event log. A failed write doesn't
// interrupt the session.
func (s *Shell) record(event logger.Event) {
	if err := s.events.Record(event); err != nil {
		logger.Warn("couldn't record event", "event", fmt.Sprintf("%T", event), "err", err)
	}
}

// dispatch runs a line at the given function call depth.
//
// A line equal to a function name calls it. Definitions are handled on the
// raw line so function bodies are stored unexpanded. Everything else has its
// $[...] spans expanded and then goes to a builtin or the executor.
func (s *Shell) dispatch(ctx context.Context, line string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line = strings.TrimSpace(line)
	if line == "" || s.Quit {
		return nil
	}

	if def, ok := s.functions.Lookup(line); ok {
		return s.invoke(ctx, def, depth)
	}

	if functions.IsDefinition(line) {
		body := strings.TrimSpace(line[len(functions.Keyword):])
		s.runBuiltin(line, line, depth, []string{functions.Keyword, body})
		return nil
	}

	expanded, expansions := s.evaluator.ExpandAll(line)
	for _, e := range expansions {
		s.record(&logger.Expansion{Span: e.Span, Result: e.Result})
	}

	args, err := shlex.Split(expanded, true)
	if err != nil {
		logger.Debug("couldn't split line, falling back to fields", "line", expanded, "err", err)
		args = strings.Fields(expanded)
	}
	if len(args) > 0 {
		if _, ok := lookupBuiltin(args[0]); ok {
			s.runBuiltin(line, expanded, depth, args)
			return nil
		}
	}

	return s.runExternal(ctx, line, expanded, depth)
}

func (s *Shell) invoke(ctx context.Context, def *functions.Definition, depth int) error {
	if limit := s.config.MaxCallDepth; limit > 0 && depth >= limit {
		return fmt.Errorf("%s: %w (%d)", def.Name, ErrCallDepthExceeded, limit)
	}

	logger.Debug("calling function", "name", def.Name, "depth", depth)
	s.record(&logger.RunCommand{Raw: def.Name, Kind: KindFunction, Depth: depth})

	for _, command := range def.Commands {
		if err := s.dispatch(ctx, command, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shell) runBuiltin(raw, expanded string, depth int, args []string) {
	builtin, _ := lookupBuiltin(args[0])
	s.lastRet = builtin.Main(s, args)

	s.record(&logger.RunCommand{
		Raw:        raw,
		Expanded:   expandedOrEmpty(raw, expanded),
		Kind:       KindBuiltin,
		ExitStatus: s.lastRet,
		Depth:      depth,
	})
}

func (s *Shell) runExternal(ctx context.Context, raw, expanded string, depth int) error {
	firstWord := strings.SplitN(expanded, " ", 2)[0]
	status, err := s.executor.Execute(ctx, ExecRequest{
		Line:        expanded,
		Dir:         s.dir,
		Env:         s.env.Environ(),
		Stdin:       s.stdin,
		Stdout:      s.stdout,
		Stderr:      s.stderr,
		Interactive: s.config.IsInteractive(firstWord),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.reportError(raw, err)
		status = 127
	}
	s.lastRet = status

	s.record(&logger.RunCommand{
		Raw:        raw,
		Expanded:   expandedOrEmpty(raw, expanded),
		Kind:       KindExternal,
		ExitStatus: status,
		Depth:      depth,
	})
	return nil
}

func expandedOrEmpty(raw, expanded string) string {
	if raw == expanded {
		return ""
	}
	return expanded
}

// Prompt renders the configured prompt.
func (s *Shell) Prompt() string {
	prompt := unescape(s.config.Prompt)
	prompt = strings.ReplaceAll(prompt, `\u`, s.env.Getenv(EnvUser))
	prompt = strings.ReplaceAll(prompt, `\h`, s.env.Getenv(EnvHostname))

	pwd := s.dir
	if home := s.env.Getenv(EnvHome); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	return strings.ReplaceAll(prompt, `\w`, s.colors.Sprint(ColorBoldGreen, pwd))
}

func (s *Shell) completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range BuiltinNames() {
		items = append(items, readline.PcItem(name))
	}
	items = append(items, readline.PcItemDynamic(func(string) []string {
		names := s.functions.Names()
		sort.Strings(names)
		return names
	}))
	return readline.NewPrefixCompleter(items...)
}

// Interact runs the read-eval loop until the input ends or exit is called.
func (s *Shell) Interact(ctx context.Context) error {
	cfg := &readline.Config{
		Stdin:             readline.NewCancelableStdin(s.stdin),
		Stdout:            s.stdout,
		Stderr:            s.stderr,
		HistoryFile:       s.config.HistoryPath(),
		HistorySearchFold: true,
		AutoComplete:      s.completer(),
		FuncIsTerminal: func() bool {
			return s.isTerminal
		},
	}
	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}
	defer rl.Close()
	s.Readline = rl
	defer func() { s.Readline = nil }()

	fmt.Fprintf(s.stdout, "qicmd [version %s]\n", Version)

	var block functions.Accumulator
	for !s.Quit {
		if block.Pending() {
			rl.SetPrompt(s.config.ContinuationPrompt)
		} else {
			rl.SetPrompt(s.Prompt())
		}
		line, err := rl.Readline()

		switch {
		case err == io.EOF:
			if flushErr := block.Flush(); flushErr != nil {
				s.reportError("", flushErr)
			}
			return nil // Input closed, quit.

		case err == readline.ErrInterrupt:
			// Interrupt clears the line and any open definition.
			block.Reset()
			continue

		case err != nil:
			logger.Error("couldn't read line", "err", err)
			continue
		}

		s.history = append(s.history, line)

		text, ok := block.Feed(line)
		if !ok {
			continue
		}
		if err := s.Execute(ctx, text); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
