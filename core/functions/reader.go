package functions

import "strings"

// BracketDepth returns the number of '[' in line minus the number of ']'.
func BracketDepth(line string) int {
	return strings.Count(line, "[") - strings.Count(line, "]")
}

// OpensBlock reports whether line starts a bracketed definition that
// continues on the following lines.
func OpensBlock(line string) bool {
	return IsDefinition(line) && BracketDepth(line) > 0
}

// Accumulator joins the lines of a bracketed definition until its brackets
// balance.
type Accumulator struct {
	lines []string
	depth int
}

// Feed offers the next input line. It returns the text to dispatch and true
// once a complete unit is available: ordinary lines come back at once, the
// lines of an open definition are held until the closing bracket arrives and
// then returned joined by newlines.
func (a *Accumulator) Feed(line string) (string, bool) {
	if !a.Pending() && !OpensBlock(line) {
		return line, true
	}

	a.lines = append(a.lines, strings.TrimSpace(line))
	a.depth += BracketDepth(line)
	if a.depth > 0 {
		return "", false
	}

	text := strings.Join(a.lines, "\n")
	a.Reset()
	return text, true
}

// Pending reports whether a definition is open.
func (a *Accumulator) Pending() bool {
	return len(a.lines) > 0
}

// Depth returns the number of brackets still open.
func (a *Accumulator) Depth() int {
	return a.depth
}

// Flush ends the input. A definition that is still open is discarded and
// reported as unterminated.
func (a *Accumulator) Flush() error {
	if !a.Pending() {
		return nil
	}
	a.Reset()
	return ErrUnterminatedBlock
}

// Reset discards any open definition.
func (a *Accumulator) Reset() {
	a.lines = nil
	a.depth = 0
}
