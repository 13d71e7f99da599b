package core

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
)

// SimpleCommand parses the flags of a builtin and prints its help.
type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses args, the first of which is the command name, and calls
// callback if parsing succeeded and help wasn't requested.
func (s *SimpleCommand) Run(sh *Shell, args []string, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintf(sh.Stderr(), "error: %s\n\n", err)
		s.PrintHelp(sh.Stdout())
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(sh.Stdout())
		return 0
	}

	return callback()
}

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// ColorPrinter decides whether session output gets colored.
type ColorPrinter struct {
	mode       string
	isTerminal bool
}

// NewColorPrinter creates a printer for the given mode (always|auto|never).
// In auto mode output is colored only when writing to a terminal.
func NewColorPrinter(mode string, isTerminal bool) *ColorPrinter {
	return &ColorPrinter{mode: mode, isTerminal: isTerminal}
}

func (c *ColorPrinter) ShouldColor() bool {
	switch c.mode {
	case ColorNever:
		return false
	case ColorAlways:
		return true
	default:
		return c.isTerminal
	}
}

// Sprint formats a using the color if the output should be colored.
func (c *ColorPrinter) Sprint(clr *color.Color, a ...interface{}) string {
	if !c.ShouldColor() {
		return fmt.Sprint(a...)
	}

	// Colors otherwise follow the global color.NoColor, which looks at the
	// process's stdout rather than the session's.
	colored := *clr
	colored.EnableColor()
	return colored.Sprint(a...)
}

// SprintFunc binds Sprint to a color.
func (c *ColorPrinter) SprintFunc(clr *color.Color) func(a ...interface{}) string {
	return func(a ...interface{}) string {
		return c.Sprint(clr, a...)
	}
}
