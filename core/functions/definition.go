// Package functions holds the user-defined functions of a session: the
// definition parser, the table they're stored in and the reader that joins
// bracketed definitions spread over several lines.
package functions

import (
	"errors"
	"strings"
)

// Keyword starts a definition line.
const Keyword = "def"

var (
	ErrMissingArrow      = errors.New("function definition must contain '=>'")
	ErrEmptyName         = errors.New("function name can't be empty")
	ErrUnterminatedBlock = errors.New("multi-line function body must end with ']'")
	ErrNoCommands        = errors.New("function must contain at least one command")
	ErrNotDefined        = errors.New("function not defined")
)

// Definition is a named list of command lines.
type Definition struct {
	Name     string
	Commands []string
	// SingleLine is set for "name => command" definitions and clear for
	// bracketed ones. It only changes how the function is listed.
	SingleLine bool
}

// IsDefinition reports whether line starts with the def keyword.
func IsDefinition(line string) bool {
	_, ok := stripKeyword(line)
	return ok
}

func stripKeyword(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(line) < len(Keyword) || !strings.EqualFold(line[:len(Keyword)], Keyword) {
		return line, false
	}
	rest := line[len(Keyword):]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return line, false
	}
	return strings.TrimSpace(rest), true
}

// Parse parses a definition. The leading def keyword is optional, and a
// bracketed body may contain line breaks.
//
//	def greet => echo hi
//	def greet => [ echo hi ; echo bye ]
func Parse(text string) (*Definition, error) {
	text, _ = stripKeyword(text)

	arrow := strings.Index(text, "=>")
	if arrow < 0 {
		return nil, ErrMissingArrow
	}

	name := strings.TrimSpace(text[:arrow])
	if name == "" {
		return nil, ErrEmptyName
	}

	body := strings.TrimSpace(text[arrow+len("=>"):])
	if !strings.HasPrefix(body, "[") {
		return &Definition{Name: name, Commands: []string{body}, SingleLine: true}, nil
	}

	if len(body) < 2 || !strings.HasSuffix(body, "]") {
		return nil, ErrUnterminatedBlock
	}

	commands := SplitCommands(body[1 : len(body)-1])
	if len(commands) == 0 {
		return nil, ErrNoCommands
	}
	return &Definition{Name: name, Commands: commands}, nil
}

// SplitCommands splits a bracketed body on semicolons and line breaks,
// dropping blank entries.
func SplitCommands(body string) []string {
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})

	var commands []string
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			commands = append(commands, field)
		}
	}
	return commands
}
