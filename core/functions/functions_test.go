package functions

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ExampleTable_WriteListing() {
	table := NewTable()
	for _, line := range []string{
		"def greet => [echo hi; echo bye]",
		"def today => echo $[@:getdate(Now)]",
	} {
		d, _ := Parse(line)
		table.Define(d)
	}

	table.WriteListing(os.Stdout, nil)

	// Output: defined functions:
	// ════════════════════════════════════════════════════════════
	// greet => [
	//   echo hi
	//   echo bye
	// ]
	// today => echo $[@:getdate(Now)]
}

func TestParse(t *testing.T) {
	cases := map[string]struct {
		text     string
		expected *Definition
		err      error
	}{
		"single line": {
			text:     "def greet => echo hi",
			expected: &Definition{Name: "greet", Commands: []string{"echo hi"}, SingleLine: true},
		},
		"keyword optional": {
			text:     "greet=>echo hi",
			expected: &Definition{Name: "greet", Commands: []string{"echo hi"}, SingleLine: true},
		},
		"keyword case": {
			text:     "DEF greet => echo hi",
			expected: &Definition{Name: "greet", Commands: []string{"echo hi"}, SingleLine: true},
		},
		"bracketed": {
			text:     "def greet => [echo hi; echo bye]",
			expected: &Definition{Name: "greet", Commands: []string{"echo hi", "echo bye"}},
		},
		"multi line": {
			text:     "def greet => [\necho hi\r\n\n  echo bye ;; \n]",
			expected: &Definition{Name: "greet", Commands: []string{"echo hi", "echo bye"}},
		},
		"body keeps arrows": {
			text:     "def up => echo $[String:x => String.Upper]",
			expected: &Definition{Name: "up", Commands: []string{"echo $[String:x => String.Upper]"}, SingleLine: true},
		},
		"missing arrow":  {text: "def greet echo hi", err: ErrMissingArrow},
		"empty name":     {text: "def => echo hi", err: ErrEmptyName},
		"unterminated":   {text: "def greet => [echo hi", err: ErrUnterminatedBlock},
		"lone bracket":   {text: "def greet => [", err: ErrUnterminatedBlock},
		"no commands":    {text: "def greet => [ ; ; ]", err: ErrNoCommands},
		"empty brackets": {text: "def greet => []", err: ErrNoCommands},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			actual, err := Parse(tc.text)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err), "got %v", err)
				assert.Nil(t, actual)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestIsDefinition(t *testing.T) {
	assert.True(t, IsDefinition("def x => y"))
	assert.True(t, IsDefinition("  Def\tx => y"))
	assert.True(t, IsDefinition("def"))
	assert.False(t, IsDefinition("define x"))
	assert.False(t, IsDefinition("echo def"))
}

func TestTable(t *testing.T) {
	table := NewTable()
	assert.Equal(t, 0, table.Len())

	assert.False(t, table.Define(&Definition{Name: "One", Commands: []string{"a"}, SingleLine: true}))
	assert.False(t, table.Define(&Definition{Name: "two", Commands: []string{"b"}, SingleLine: true}))
	assert.True(t, table.Define(&Definition{Name: "ONE", Commands: []string{"c"}, SingleLine: true}))
	assert.Equal(t, []string{"ONE", "two"}, table.Names())

	d, ok := table.Lookup("one")
	require.True(t, ok)
	assert.Equal(t, []string{"c"}, d.Commands)

	assert.NoError(t, table.Delete("One"))
	_, ok = table.Lookup("one")
	assert.False(t, ok)
	assert.Equal(t, []string{"two"}, table.Names())

	err := table.Delete("one")
	assert.True(t, errors.Is(err, ErrNotDefined))
	assert.Equal(t, 1, table.Len())
}

func TestTable_WriteListing_empty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, NewTable().WriteListing(&buf, nil))
	assert.Equal(t, "no functions defined\n", buf.String())
}

func TestTable_WriteListing_decorated(t *testing.T) {
	table := NewTable()
	table.Define(&Definition{Name: "x", Commands: []string{"y"}, SingleLine: true})

	var buf bytes.Buffer
	assert.NoError(t, table.WriteListing(&buf, func(a ...interface{}) string {
		return fmt.Sprintf("<%s>", a...)
	}))
	assert.True(t, strings.HasSuffix(buf.String(), "<x> => y\n"))
}

func TestAccumulator(t *testing.T) {
	lines := []string{
		"echo before",
		"def greet => [",
		"  echo hi",
		"",
		"  echo [nested]",
		"]",
		"def one => [echo one]",
		"echo after",
	}

	var (
		acc  Accumulator
		outs []string
	)
	for _, line := range lines {
		if text, ok := acc.Feed(line); ok {
			outs = append(outs, text)
		}
	}
	assert.NoError(t, acc.Flush())

	assert.Equal(t, []string{
		"echo before",
		"def greet => [\necho hi\n\necho [nested]\n]",
		"def one => [echo one]",
		"echo after",
	}, outs)

	d, err := Parse(outs[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"echo hi", "echo [nested]"}, d.Commands)
	assert.False(t, d.SingleLine)
}

func TestAccumulator_unterminated(t *testing.T) {
	var acc Accumulator

	_, ok := acc.Feed("def greet => [")
	assert.False(t, ok)
	_, ok = acc.Feed("echo [")
	assert.False(t, ok)
	assert.True(t, acc.Pending())
	assert.Equal(t, 2, acc.Depth())

	assert.True(t, errors.Is(acc.Flush(), ErrUnterminatedBlock))
	assert.False(t, acc.Pending())
	assert.NoError(t, acc.Flush())
}

func TestBracketDepth(t *testing.T) {
	assert.Equal(t, 1, BracketDepth("def x => ["))
	assert.Equal(t, 0, BracketDepth("def x => [a]"))
	assert.Equal(t, -1, BracketDepth("]"))
	assert.True(t, OpensBlock("def x => [ a ; [b"))
	assert.False(t, OpensBlock("echo ["))
}
