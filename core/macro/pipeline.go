package macro

import (
	"strings"

	"github.com/josephlewis42/qicmd/core/logger"
)

// StepSeparator separates the steps of a pipeline.
const StepSeparator = "=>"

// Evaluator runs pipelines and generators against a converter registry.
type Evaluator struct {
	registry *Registry
}

// NewEvaluator creates an evaluator backed by r. A nil registry uses the
// system clock.
func NewEvaluator(r *Registry) *Evaluator {
	if r == nil {
		r = NewRegistry(nil)
	}
	return &Evaluator{registry: r}
}

// Registry gets the registry the evaluator converts with.
func (e *Evaluator) Registry() *Registry {
	return e.registry
}

// SplitSteps splits a pipeline on its arrows, trimming each step and dropping
// empty ones.
func SplitSteps(pipeline string) []string {
	var steps []string
	for _, step := range strings.Split(pipeline, StepSeparator) {
		if step = strings.TrimSpace(step); step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}

// Pipeline applies the steps of pipeline to seed and returns the resulting
// text.
//
// A blank pipeline applies the seed's default converter. Otherwise evaluation
// stops at the first step that names no converter, or whose converter refuses
// its input, and the value reached so far is returned; a pipeline made only of
// arrows returns the seed as is.
func (e *Evaluator) Pipeline(seed Value, pipeline string) string {
	if strings.TrimSpace(pipeline) == "" {
		op, ok := DefaultOp(seed.Type)
		if !ok {
			return seed.Text
		}
		out, err := e.registry.Convert(op, seed.Text)
		if err != nil {
			logger.Debug("default conversion failed", "type", seed.Type, "err", err)
			return seed.Text
		}
		return out
	}

	current := seed
	for _, step := range SplitSteps(pipeline) {
		next, ok := e.Step(current, step)
		if !ok {
			break
		}
		current = next
	}
	return current.Text
}

// Step applies a single pipeline step. It reports false when the step names no
// converter or the converter fails, in which case the pipeline must stop.
func (e *Evaluator) Step(current Value, step string) (Value, bool) {
	op, typ, ok := resolveStep(current.Type, step)
	if !ok {
		logger.Debug("unknown pipeline step, stopping", "step", step, "value", current.Text)
		return current, false
	}

	out, err := e.registry.Convert(op, current.Text)
	if err != nil {
		logger.Debug("converter failed, stopping", "op", op, "err", err)
		return current, false
	}

	next := Value{Type: typ, Text: out}
	logger.Debug("pipeline step", "op", op, "in", current.Text, "out", out)
	return next, true
}

// resolveStep maps a step name to its converter and the type of the value it
// produces. A step spelled exactly "Time" applied to a Date extracts the time of
// day rather than running the Time default.
func resolveStep(current Type, step string) (Op, Type, bool) {
	if current == Date && step == Time.String() {
		return OpDateTime, Time, true
	}
	op, ok := LookupOp(step)
	if !ok {
		return opInvalid, current, false
	}
	return op, op.Type(), true
}
