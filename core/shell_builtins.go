package core

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/josephlewis42/qicmd/core/calc"
	"github.com/josephlewis42/qicmd/core/functions"
	"github.com/josephlewis42/qicmd/core/logger"
	"github.com/josephlewis42/qicmd/core/macro"
	getopt "github.com/pborman/getopt/v2"
	"github.com/spf13/afero"
)

// AllBuiltins holds a list of all registered shell builtins, keyed by lower
// case name.
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	// Main runs the builtin, args[0] is the name it was called by.
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

func lookupBuiltin(name string) (ShellBuiltin, bool) {
	builtin, ok := AllBuiltins[strings.ToLower(name)]
	return builtin, ok
}

// BuiltinNames lists the builtins, sorted.
func BuiltinNames() []string {
	var names []string
	for name := range AllBuiltins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Cd is the cd shell builtin. Without an argument it prints the working
// directory.
func Cd(s *Shell, args []string) int {
	switch len(args) {
	case 1:
		fmt.Fprintln(s.Stdout(), s.Dir())
		return 0
	case 2:
		// handled below
	default:
		fmt.Fprintf(s.Stderr(), "%s: too many arguments\n", args[0])
		return 1
	}

	target := s.resolve(args[1])
	isDir, err := afero.IsDir(s.fs, target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Debug("couldn't stat directory", "dir", target, "err", err)
	}
	if !isDir {
		fmt.Fprintf(s.Stderr(), "%s: directory not found: %s\n", args[0], args[1])
		return 1
	}

	s.setDir(target)
	fmt.Fprintf(s.Stdout(), "directory changed to: %s\n", target)
	return 0
}

// Pwd prints the working directory.
func Pwd(s *Shell, args []string) int {
	fmt.Fprintln(s.Stdout(), s.Dir())
	return 0
}

// Cls clears the terminal.
func Cls(s *Shell, args []string) int {
	if s.isTerminal {
		// Assumes VT100 compatibility.
		fmt.Fprint(s.Stdout(), "\033[H\033[2J")
	}
	return 0
}

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-7][0-7]?[0-7]?`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\b`, "\b", // backspace
		`\a`, "\a", // alert
		`\f`, "\f", // form feed
		`\v`, "\v", // vertical tab
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	s = unescapeOctal.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseUint(arg[2:], 8, 8)
		if err != nil {
			return arg
		}
		return string([]byte{byte(out)})
	})
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseUint(arg[2:], 16, 8)
		if err != nil {
			return arg
		}
		return string([]byte{byte(out)})
	})
	return s
}

var echoFlags = map[string]bool{"-e": true, "-h": true, "--help": true}

// Echo implements a limited echo command.
func Echo(s *Shell, args []string) int {
	// Expansions often produce negative numbers, so only a leading argument
	// that is one of echo's own flags starts flag parsing.
	if len(args) > 1 && !echoFlags[args[1]] {
		fmt.Fprintln(s.Stdout(), strings.Join(args[1:], " "))
		return 0
	}

	cmd := &SimpleCommand{
		Use:   "echo [-e] [ARG] ...",
		Short: "Display a line of text.",
	}

	opt := cmd.Flags()
	escaped := opt.Bool('e', "interpret backslash escapes")

	return cmd.Run(s, args, func() int {
		w := s.Stdout()
		for i, arg := range opt.Args() {
			if i > 0 {
				fmt.Fprint(w, " ")
			}

			if *escaped {
				arg = unescape(arg)
			}

			fmt.Fprint(w, arg)
		}

		fmt.Fprintln(w)

		return 0
	})
}

// Def defines a function. args[1] holds the whole unexpanded definition.
func Def(s *Shell, args []string) int {
	def, err := functions.Parse(strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(s.Stderr(), "%s: %v\n", args[0], err)
		return 1
	}

	replaced := s.functions.Define(def)
	logger.Debug("defined function", "name", def.Name, "commands", len(def.Commands), "replaced", replaced)
	s.record(&logger.DefineFunction{
		Name:       def.Name,
		Commands:   def.Commands,
		SingleLine: def.SingleLine,
		Replaced:   replaced,
	})
	return 0
}

// ListFuncs prints the defined functions in the form they were declared.
func ListFuncs(s *Shell, args []string) int {
	if err := s.functions.WriteListing(s.Stdout(), s.colors.SprintFunc(ColorBoldCyan)); err != nil {
		fmt.Fprintf(s.Stderr(), "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}

// DelFunc removes a function.
func DelFunc(s *Shell, args []string) int {
	if len(args) < 2 {
		fmt.Fprintf(s.Stdout(), "usage: %s NAME\n", args[0])
		return 1
	}

	name := args[1]
	if err := s.functions.Delete(name); err != nil {
		fmt.Fprintf(s.Stdout(), "function '%s' does not exist\n", name)
		return 1
	}

	s.record(&logger.DeleteFunction{Name: name})
	fmt.Fprintf(s.Stdout(), "function '%s' deleted\n", name)
	return 0
}

// Calc evaluates an arithmetic expression.
func Calc(s *Shell, args []string) int {
	w := s.Stdout()
	if len(args) < 2 {
		fmt.Fprintf(w, "usage: %s EXPRESSION\n", args[0])
		fmt.Fprintln(w, "Supported operators:")
		fmt.Fprintln(w, "+ : addition (5 + 3 = 8)")
		fmt.Fprintln(w, "- : subtraction (10 - 4 = 6)")
		fmt.Fprintln(w, "* : multiplication (6 * 7 = 42)")
		fmt.Fprintln(w, "/ : division (15 / 3 = 5)")
		fmt.Fprintln(w, "^ : power (2 ^ 3 = 8)")
		fmt.Fprintln(w, "Parentheses group: (3 + 2) * 4")
		return 1
	}

	value, err := calc.Evaluate(strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(s.Stderr(), "%s: %v\n", args[0], err)
		return 1
	}

	fmt.Fprintln(w, calc.Format(value))
	return 0
}

// History displays or clears the lines typed into an interactive session.
func History(s *Shell, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.Stderr()
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "Display or manipulate the history list")
		fmt.Fprintln(w, "Display the history list with line numbers.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		return 1
	}

	if *clear {
		if s.Readline != nil {
			s.Readline.Operation.ResetHistory()
		}
		s.history = nil
		return 0
	}

	for i, line := range s.history {
		fmt.Fprintf(s.Stdout(), "% 5d  %s\n", i, line)
	}
	return 0
}

// Help lists the builtins, functions and macro forms.
func Help(s *Shell, args []string) int {
	w := s.Stdout()
	fmt.Fprintf(w, "qicmd version %s\n", Version)
	fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
	fmt.Fprintln(w, "Other lines are expanded and passed to the system shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w, strings.Join(BuiltinNames(), "\n"))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Macros:")
	fmt.Fprintln(w, "  $[Type: seed => Step => ...]  Type is one of Number, Time, String, Boolean, Date, or ? to detect")
	fmt.Fprintln(w, "  $[@: generator(args) => Step] generators:", strings.Join(macro.Generators(), ", "))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Functions:")
	fmt.Fprintf(w, "  %s name => command\n", functions.Keyword)
	fmt.Fprintf(w, "  %s name => [ command; command ]\n", functions.Keyword)

	return 0
}

// Exit quits the shell
func Exit(s *Shell, args []string) int {
	s.Quit = true
	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["chdir"] = ShellBuiltinFunc(Cd)
	AllBuiltins["pwd"] = ShellBuiltinFunc(Pwd)
	AllBuiltins["cls"] = ShellBuiltinFunc(Cls)
	AllBuiltins["echo"] = ShellBuiltinFunc(Echo)
	AllBuiltins[functions.Keyword] = ShellBuiltinFunc(Def)
	AllBuiltins["listfuncs"] = ShellBuiltinFunc(ListFuncs)
	AllBuiltins["delfunc"] = ShellBuiltinFunc(DelFunc)
	AllBuiltins["calc"] = ShellBuiltinFunc(Calc)
	AllBuiltins["history"] = ShellBuiltinFunc(History)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
}
