package macro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// ErrNotNumeric is wrapped by converters that need a number.
	ErrNotNumeric = errors.New("not a number")
	// ErrNotBoolean is wrapped by converters that need true or false.
	ErrNotBoolean = errors.New("not a boolean")
	// ErrUnknownOp is returned for ops outside the registry.
	ErrUnknownOp = errors.New("unknown converter")
)

// ConversionError reports a converter that refused its input.
type ConversionError struct {
	Op    Op
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: cannot convert %q: %v", e.Op, e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Registry applies converters. It has no mutable state: the key space is the
// closed Op set and the only dependency, the clock used by the Date ops, is
// fixed at construction, so a Registry is safe to share.
type Registry struct {
	now func() time.Time
}

// NewRegistry creates a registry that reads the current time from now. A nil
// clock uses time.Now.
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{now: now}
}

// Now gets the registry's current time.
func (r *Registry) Now() time.Time {
	return r.now()
}

// Convert applies op to value.
//
// Most converters are best-effort and hand back their input unchanged when it
// doesn't parse; the ones that can't produce anything sensible return a
// *ConversionError instead.
func (r *Registry) Convert(op Op, value string) (string, error) {
	switch op {
	case OpNumber:
		if n, ok := parseInt32(value); ok {
			return strconv.FormatInt(n, 10), nil
		}
		return value, nil

	case OpTime:
		if n, ok := parseInt32(value); ok {
			return FormatDurationSeconds(n), nil
		}
		return value, nil

	case OpString, OpNumberString:
		return value, nil

	case OpBoolean:
		return strings.ToLower(value), nil

	case OpDate:
		if t, ok := ParseDate(value, r.now()); ok {
			return t.Format(DateLayout), nil
		}
		return value, nil

	case OpNumberLength, OpStringLength:
		return strconv.Itoa(utf8.RuneCountInString(value)), nil

	case OpNumberDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return value, &ConversionError{Op: op, Value: value, Err: ErrNotNumeric}
		}
		return formatFloat(f), nil

	case OpNumberAbs:
		return mapNumber(value, func(n int64) int64 {
			if n < 0 {
				return -n
			}
			return n
		}, math.Abs), nil

	case OpNumberNeg:
		return mapNumber(value, func(n int64) int64 { return -n }, func(f float64) float64 { return -f }), nil

	case OpNumberRound:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return formatFloat(math.RoundToEven(f)), nil
		}
		return value, nil

	case OpTimeSec, OpTimeNumber:
		seconds, err := ParseDurationSeconds(value)
		if err != nil {
			return value, &ConversionError{Op: op, Value: value, Err: err}
		}
		return strconv.FormatInt(seconds, 10), nil

	case OpTimeMin, OpTimeHour, OpTimeDay:
		seconds, err := ParseDurationSeconds(value)
		if err != nil {
			return value, &ConversionError{Op: op, Value: value, Err: err}
		}
		return formatFloat(math.RoundToEven(float64(seconds) / unitsOf[op])), nil

	case OpStringUpper:
		return strings.ToUpper(value), nil

	case OpStringLower:
		return strings.ToLower(value), nil

	case OpBooleanNot:
		b, ok := parseBool(value)
		if !ok {
			return value, &ConversionError{Op: op, Value: value, Err: ErrNotBoolean}
		}
		return strconv.FormatBool(!b), nil

	case OpBooleanNumber:
		b, ok := parseBool(value)
		if !ok {
			return value, &ConversionError{Op: op, Value: value, Err: ErrNotBoolean}
		}
		if b {
			return "1", nil
		}
		return "0", nil

	case OpStringNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return value, nil
		}
		return "0", nil

	case OpDateTime:
		if t, ok := ParseDate(value, r.now()); ok {
			return formatTimeOfDay(t), nil
		}
		return value, nil

	case OpDateNow, OpDateUTC, OpDateToday:
		seconds, err := ParseDurationSeconds(value)
		if err != nil {
			return value, &ConversionError{Op: op, Value: value, Err: err}
		}
		t, err := addSeconds(r.dateBase(op), seconds)
		if err != nil {
			return value, &ConversionError{Op: op, Value: value, Err: err}
		}
		return t.Format(DateLayout), nil
	}

	return value, &ConversionError{Op: op, Value: value, Err: ErrUnknownOp}
}

func parseInt32(text string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 32)
	return n, err == nil
}

func parseBool(text string) (value, ok bool) {
	switch text = strings.TrimSpace(text); {
	case strings.EqualFold(text, "true"):
		return true, true
	case strings.EqualFold(text, "false"):
		return false, true
	default:
		return false, false
	}
}

// mapNumber applies the integer form of an operation when text is an integer
// and the floating-point form when it's any other number.
func mapNumber(text string, intOp func(int64) int64, floatOp func(float64) float64) string {
	if n, ok := parseInt32(text); ok {
		return strconv.FormatInt(intOp(n), 10)
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		return formatFloat(floatOp(f))
	}
	return text
}

func formatFloat(f float64) string {
	if f == 0 {
		// Drop the sign of negative zero.
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var unitsOf = map[Op]float64{
	OpTimeMin:  60,
	OpTimeHour: 3600,
	OpTimeDay:  86400,
}

// Date values stay within years 1 to 9999.
var (
	minDate = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxDate = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

func (r *Registry) dateBase(op Op) time.Time {
	switch op {
	case OpDateUTC:
		return time.Unix(0, 0).UTC()
	case OpDateToday:
		now := r.now()
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	default:
		return r.now()
	}
}

// addSeconds offsets t by whole days and then by the remaining seconds, so
// offsets far beyond the range of a time.Duration are still exact.
func addSeconds(t time.Time, seconds int64) (time.Time, error) {
	const maxDays = int64(10000 * 366)

	days, rest := seconds/86400, seconds%86400
	if days > maxDays || days < -maxDays {
		return t, ErrOutOfRange
	}
	out := t.AddDate(0, 0, int(days)).Add(time.Duration(rest) * time.Second)
	if out.Before(minDate) || out.After(maxDate) {
		return t, ErrOutOfRange
	}
	return out, nil
}
