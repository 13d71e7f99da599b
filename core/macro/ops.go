package macro

import (
	"sort"
	"strings"
)

// Op identifies one converter. The set is closed: every key a pipeline step
// can name maps to exactly one Op.
type Op int

const (
	opInvalid Op = iota

	// Defaults, keyed by the bare type name.
	OpNumber
	OpTime
	OpString
	OpBoolean
	OpDate

	// Type.Operation
	OpNumberLength
	OpNumberDouble
	OpNumberAbs
	OpNumberNeg
	OpNumberRound
	OpTimeSec
	OpTimeMin
	OpTimeHour
	OpTimeDay
	OpStringUpper
	OpStringLower
	OpStringLength
	OpBooleanNot
	OpBooleanNumber

	// TypeA.TypeB
	OpTimeNumber
	OpNumberString
	OpStringNumber
	OpDateTime
	OpDateNow
	OpDateUTC
	OpDateToday

	opCount
)

var opKeys = [opCount]string{
	OpNumber:        "Number",
	OpTime:          "Time",
	OpString:        "String",
	OpBoolean:       "Boolean",
	OpDate:          "Date",
	OpNumberLength:  "Number.Length",
	OpNumberDouble:  "Number.Double",
	OpNumberAbs:     "Number.Abs",
	OpNumberNeg:     "Number.Neg",
	OpNumberRound:   "Number.Round",
	OpTimeSec:       "Time.Sec",
	OpTimeMin:       "Time.Min",
	OpTimeHour:      "Time.Hour",
	OpTimeDay:       "Time.Day",
	OpStringUpper:   "String.Upper",
	OpStringLower:   "String.Lower",
	OpStringLength:  "String.Length",
	OpBooleanNot:    "Boolean.Not",
	OpBooleanNumber: "Boolean.Number",
	OpTimeNumber:    "Time.Number",
	OpNumberString:  "Number.String",
	OpStringNumber:  "String.Number",
	OpDateTime:      "Date.Time",
	OpDateNow:       "Date.Now",
	OpDateUTC:       "Date.UTC",
	OpDateToday:     "Date.Today",
}

var (
	opsByKey     = make(map[string]Op)
	defaultOpsOf = map[Type]Op{
		Number:  OpNumber,
		Time:    OpTime,
		String:  OpString,
		Boolean: OpBoolean,
		Date:    OpDate,
	}
)

func init() {
	for op := OpNumber; op < opCount; op++ {
		opsByKey[strings.ToLower(opKeys[op])] = op
	}
}

// String returns the registry key of the op, e.g. "Number.Abs".
func (op Op) String() string {
	if op <= opInvalid || op >= opCount {
		return "Invalid"
	}
	return opKeys[op]
}

// Type is the type a pipeline carries after applying op: the part of the key
// before the dot. Cross-type keys such as "Number.String" therefore leave the
// value tagged with the source type.
func (op Op) Type() Type {
	prefix := op.String()
	if i := strings.IndexByte(prefix, '.'); i >= 0 {
		prefix = prefix[:i]
	}
	t, _ := ParseType(prefix)
	return t
}

// LookupOp resolves a registry key case-insensitively.
func LookupOp(key string) (Op, bool) {
	op, ok := opsByKey[strings.ToLower(strings.TrimSpace(key))]
	return op, ok
}

// DefaultOp gets the normalizing converter of a type.
func DefaultOp(t Type) (Op, bool) {
	op, ok := defaultOpsOf[t]
	return op, ok
}

// Keys lists every registry key, sorted.
func Keys() []string {
	var out []string
	for op := OpNumber; op < opCount; op++ {
		out = append(out, op.String())
	}
	sort.Strings(out)
	return out
}
