package macro

import (
	"regexp"
	"strings"

	"github.com/josephlewis42/qicmd/core/logger"
)

var spanPattern = regexp.MustCompile(`\$\[\s*(\??\w*|@)\s*:\s*([^=\]]+?)(?:\s*=>\s*([^\]]+))?\s*\]`)

// Span is one $[...] expression found in a line.
type Span struct {
	// Start and End are byte offsets of the span in the scanned line.
	Start, End int
	// Text is the span as written.
	Text string
	// Tag is the text before the colon: a type name, "?", "" or "@".
	Tag string
	// Seed is the trimmed text between the colon and the first arrow.
	Seed string
	// Pipeline holds the steps after the first arrow, if any.
	Pipeline string
}

// Generator reports whether the span calls a generator.
func (s Span) Generator() bool {
	return s.Tag == GeneratorSigil
}

// Detect reports whether the span's seed type must be inferred.
func (s Span) Detect() bool {
	return s.Tag == "" || s.Tag == "?"
}

// Expansion pairs a span with the text it was replaced by.
type Expansion struct {
	Span   string `json:"span"`
	Result string `json:"result"`
}

// FindSpans returns the non-overlapping spans of line, left to right.
func FindSpans(line string) []Span {
	var spans []Span
	for _, loc := range spanPattern.FindAllStringSubmatchIndex(line, -1) {
		span := Span{
			Start: loc[0],
			End:   loc[1],
			Text:  line[loc[0]:loc[1]],
			Tag:   line[loc[2]:loc[3]],
			Seed:  strings.TrimSpace(line[loc[4]:loc[5]]),
		}
		if loc[6] >= 0 {
			span.Pipeline = strings.TrimSpace(line[loc[6]:loc[7]])
		}
		spans = append(spans, span)
	}
	return spans
}

// Evaluate computes the replacement text of a span.
func (e *Evaluator) Evaluate(span Span) string {
	if span.Generator() {
		return e.Generate(span.Seed, span.Pipeline)
	}

	seed := Value{Text: span.Seed}
	if span.Detect() {
		seed.Type = DetectType(span.Seed)
	} else if t, ok := ParseType(span.Tag); ok {
		seed.Type = t
	}
	return e.Pipeline(seed, span.Pipeline)
}

// Expand replaces every span in line with its value. Text outside spans is
// kept as is.
func (e *Evaluator) Expand(line string) string {
	out, _ := e.ExpandAll(line)
	return out
}

// ExpandAll is Expand that also returns each replacement it made.
func (e *Evaluator) ExpandAll(line string) (string, []Expansion) {
	if strings.TrimSpace(line) == "" {
		return line, nil
	}

	spans := FindSpans(line)
	if len(spans) == 0 {
		return line, nil
	}

	var (
		sb         strings.Builder
		expansions = make([]Expansion, 0, len(spans))
		last       int
	)
	for _, span := range spans {
		result := e.Evaluate(span)
		logger.Debug("expanded span", "span", span.Text, "result", result)

		sb.WriteString(line[last:span.Start])
		sb.WriteString(result)
		last = span.End
		expansions = append(expansions, Expansion{Span: span.Text, Result: result})
	}
	sb.WriteString(line[last:])
	return sb.String(), expansions
}
