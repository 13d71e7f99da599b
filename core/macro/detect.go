package macro

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical text form of Date values.
const DateLayout = "2006/01/02 15:04:05"

var (
	dateLayouts = []string{
		"2006-1-2 15:4:5",
		"2006/1/2 15:4:5",
		"2006-1-2T15:4:5",
		"2006-1-2 15:4",
		"2006/1/2 15:4",
		"2006-1-2",
		"2006/1/2",
		time.RFC3339,
		"1/2/2006 15:4:5",
		"1/2/2006",
	}

	clockLayouts = []string{
		"15:4:5",
		"15:4",
	}
)

// ParseDate parses text as a calendar date/time. Times without a date are
// placed on ref's day.
func ParseDate(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	loc := ref.Location()

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}

	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			y, m, d := ref.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc), true
		}
	}

	return time.Time{}, false
}

// DetectType infers the type of a literal.
//
// The checks run in a fixed order: Date, then the duration patterns, then
// numbers, then booleans. Because the duration check runs before the numeric
// one a bare integer such as "30" is a Time, and only values that fail the
// duration patterns ("-5", "3.5") reach Number.
func DetectType(raw string) Type {
	raw = strings.TrimSpace(raw)

	if _, ok := ParseDate(raw, time.Time{}); ok {
		return Date
	}

	if IsDurationLiteral(raw) {
		return Time
	}

	if isNumeric(raw) {
		return Number
	}

	if strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false") {
		return Boolean
	}

	return String
}

func isNumeric(text string) bool {
	if _, err := strconv.ParseInt(text, 10, 64); err == nil {
		return true
	}
	f, err := strconv.ParseFloat(text, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}
