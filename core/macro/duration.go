package macro

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	durationGroup    = regexp.MustCompile(`(\d+)([smhd])`)
	compoundDuration = regexp.MustCompile(`(?i)^\d+[smhd](\d+[smhd])*$`)
	singleDuration   = regexp.MustCompile(`(?i)^\d+[smhd]?$`)

	unitSeconds = map[string]int64{
		"s": 1,
		"m": 60,
		"h": 3600,
		"d": 86400,
	}
)

// ErrOutOfRange is returned for durations and dates that don't fit the value
// they're computed in.
var ErrOutOfRange = errors.New("value out of range")

// ParseDurationSeconds converts a duration literal such as "2d3h" to a number
// of seconds.
//
// A bare integer is taken as seconds. Otherwise every <integer><unit> group in
// the text is summed; anything between groups is ignored and text without any
// group is zero seconds. The only error is ErrOutOfRange, when the total
// doesn't fit in an int64.
func ParseDurationSeconds(text string) (int64, error) {
	text = strings.ToLower(strings.TrimSpace(text))

	seconds, err := strconv.ParseInt(text, 10, 64)
	switch {
	case err == nil:
		return seconds, nil
	case errors.Is(err, strconv.ErrRange):
		return 0, ErrOutOfRange
	}

	var total int64
	for _, match := range durationGroup.FindAllStringSubmatch(text, -1) {
		amount, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			return 0, ErrOutOfRange
		}
		unit := unitSeconds[match[2]]
		if amount > math.MaxInt64/unit {
			return 0, ErrOutOfRange
		}
		amount *= unit
		if total > math.MaxInt64-amount {
			return 0, ErrOutOfRange
		}
		total += amount
	}
	return total, nil
}

// FormatDurationSeconds renders seconds in the compact day/hour/minute/second
// form, e.g. 183600 -> "2d3h". Zero components are dropped, the sign is
// dropped and zero is "0s".
func FormatDurationSeconds(total int64) string {
	if total == 0 {
		return "0s"
	}

	remaining := uint64(total)
	if total < 0 {
		// Exact for math.MinInt64 too.
		remaining = -remaining
	}

	var sb strings.Builder
	for _, unit := range []struct {
		suffix  string
		seconds uint64
	}{
		{"d", 86400},
		{"h", 3600},
		{"m", 60},
		{"s", 1},
	} {
		if amount := remaining / unit.seconds; amount > 0 {
			fmt.Fprintf(&sb, "%d%s", amount, unit.suffix)
			remaining %= unit.seconds
		}
	}
	return sb.String()
}

// IsDurationLiteral reports whether text is a compound duration such as
// "1h30m" or an unsigned integer with at most one unit, such as "30" or "30m".
func IsDurationLiteral(text string) bool {
	text = strings.TrimSpace(text)
	return compoundDuration.MatchString(text) || singleDuration.MatchString(text)
}

// formatTimeOfDay renders the hour, minute and second of t, e.g. "15h6m32s".
func formatTimeOfDay(t time.Time) string {
	var sb strings.Builder
	if h := t.Hour(); h > 0 {
		fmt.Fprintf(&sb, "%dh", h)
	}
	if m := t.Minute(); m > 0 {
		fmt.Fprintf(&sb, "%dm", m)
	}
	if s := t.Second(); s > 0 {
		fmt.Fprintf(&sb, "%ds", s)
	}
	if sb.Len() == 0 {
		return "0s"
	}
	return sb.String()
}
