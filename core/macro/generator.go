package macro

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/josephlewis42/qicmd/core/logger"
)

// GeneratorSigil is the span tag that marks a generator call.
const GeneratorSigil = "@"

// Generator identifies a built-in value producer.
type Generator int

const (
	genInvalid Generator = iota
	// GenTime produces the current clock time as a duration literal.
	GenTime
	// GenDate produces the current date and time.
	GenDate
	// GenIFEO produces a registry command attaching a debugger to an image.
	GenIFEO

	genCount
)

var generatorNames = [genCount]string{
	GenTime: "gettime",
	GenDate: "getdate",
	GenIFEO: "ifeo",
}

var callPattern = regexp.MustCompile(`(\w+)\(([^)]*)\)`)

func (g Generator) String() string {
	if g <= genInvalid || g >= genCount {
		return "invalid"
	}
	return generatorNames[g]
}

// LookupGenerator resolves a generator name case-insensitively.
func LookupGenerator(name string) (Generator, bool) {
	for g := GenTime; g < genCount; g++ {
		if strings.EqualFold(generatorNames[g], name) {
			return g, true
		}
	}
	return genInvalid, false
}

// Generators lists the generator names, sorted.
func Generators() []string {
	var out []string
	for g := GenTime; g < genCount; g++ {
		out = append(out, g.String())
	}
	sort.Strings(out)
	return out
}

// ParseCall splits a "name(arg, arg)" call. Arguments are trimmed.
func ParseCall(text string) (name string, args []string, ok bool) {
	match := callPattern.FindStringSubmatch(text)
	if match == nil {
		return "", nil, false
	}
	for _, arg := range strings.Split(match[2], ",") {
		args = append(args, strings.TrimSpace(arg))
	}
	return match[1], args, true
}

// Generate evaluates a generator call and runs the result through pipeline.
// Text that isn't a call comes back unchanged. Unknown generators, and known
// ones given the wrong arguments, produce an inline error marker.
func (e *Evaluator) Generate(call, pipeline string) string {
	name, args, ok := ParseCall(call)
	if !ok {
		return call
	}

	value, ok := e.generate(name, args)
	if !ok {
		logger.Debug("unknown generator", "name", name, "args", args)
		return fmt.Sprintf("[Error: Unknown function '%s']", name)
	}
	logger.Debug("generated value", "name", name, "value", value)

	if len(SplitSteps(pipeline)) == 0 {
		return value
	}
	return e.Pipeline(Value{Type: DetectType(value), Text: value}, pipeline)
}

func (e *Evaluator) generate(name string, args []string) (string, bool) {
	g, ok := LookupGenerator(name)
	if !ok {
		return "", false
	}

	now := e.registry.Now()
	switch g {
	case GenTime:
		if isNow(args) {
			return fmt.Sprintf("%dh%dm%ds", now.Hour(), now.Minute(), now.Second()), true
		}
	case GenDate:
		if isNow(args) {
			return fmt.Sprintf("%d/%d/%d %d:%d:%d",
				now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second()), true
		}
	case GenIFEO:
		if len(args) == 2 {
			return fmt.Sprintf(`reg add "HKLM\SOFTWARE\Microsoft\Windows NT\CurrentVersion\Image File Execution Options\%s" /v Debugger /t REG_SZ /d "%s" /f`,
				args[0], args[1]), true
		}
	}
	return "", false
}

func isNow(args []string) bool {
	return len(args) == 1 && strings.EqualFold(args[0], "now")
}
