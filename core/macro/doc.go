// Package macro implements the $[...] value pipeline language embedded in
// shell command lines.
//
// A span has the shape
//
//	$[ <tag> : <seed> => <step> => <step> ... ]
//
// where <tag> is one of the type names, empty or "?" to detect the type of the
// seed, or "@" to call a generator. Each step names a converter, either a bare
// type name ("Number") or a "Type.Op" key ("Number.Abs", "Date.Time").
package macro
