package functions

import (
	"fmt"
	"io"
	"strings"
)

// Table stores the functions of one session. Names are case-insensitive and
// listing follows definition order.
//
// A Table isn't safe for concurrent use.
type Table struct {
	order []string
	defs  map[string]*Definition
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{defs: make(map[string]*Definition)}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Define stores d, replacing any function with the same name. A replaced
// function keeps its place in the listing.
func (t *Table) Define(d *Definition) (replaced bool) {
	k := key(d.Name)
	if _, replaced = t.defs[k]; !replaced {
		t.order = append(t.order, k)
	}
	t.defs[k] = d
	return replaced
}

// Lookup finds a function by name.
func (t *Table) Lookup(name string) (*Definition, bool) {
	d, ok := t.defs[key(name)]
	return d, ok
}

// Delete removes a function, returning ErrNotDefined if there's none by that
// name.
func (t *Table) Delete(name string) error {
	k := key(name)
	if _, ok := t.defs[k]; !ok {
		return fmt.Errorf("%q: %w", name, ErrNotDefined)
	}
	delete(t.defs, k)
	for i, existing := range t.order {
		if existing == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of functions.
func (t *Table) Len() int {
	return len(t.order)
}

// All returns the functions in definition order.
func (t *Table) All() []*Definition {
	out := make([]*Definition, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.defs[k])
	}
	return out
}

// Names returns the declared function names in definition order.
func (t *Table) Names() []string {
	var out []string
	for _, d := range t.All() {
		out = append(out, d.Name)
	}
	return out
}

// WriteListing writes every function in the form it was declared in. name
// decorates function names and may be nil.
func (t *Table) WriteListing(w io.Writer, name func(a ...interface{}) string) error {
	if name == nil {
		name = fmt.Sprint
	}

	if t.Len() == 0 {
		_, err := fmt.Fprintln(w, "no functions defined")
		return err
	}

	fmt.Fprintln(w, "defined functions:")
	fmt.Fprintln(w, strings.Repeat("═", 60))
	for _, d := range t.All() {
		fmt.Fprintf(w, "%s => ", name(d.Name))
		if d.SingleLine {
			fmt.Fprintln(w, d.Commands[0])
			continue
		}

		fmt.Fprintln(w, "[")
		for _, cmd := range d.Commands {
			fmt.Fprintf(w, "  %s\n", cmd)
		}
		if _, err := fmt.Fprintln(w, "]"); err != nil {
			return err
		}
	}
	return nil
}
