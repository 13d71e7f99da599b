package macro

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2024, 3, 9, 8, 5, 7, 0, time.UTC)

func fixedRegistry() *Registry {
	return NewRegistry(func() time.Time { return fixedNow })
}

func TestRegistry_Convert(t *testing.T) {
	cases := []struct {
		op       Op
		in       string
		expected string
	}{
		{OpNumber, "42", "42"},
		{OpNumber, " 7 ", "7"},
		{OpNumber, "abc", "abc"},
		{OpNumber, "3.5", "3.5"},
		{OpNumber, "99999999999", "99999999999"},
		{OpTime, "3600", "1h"},
		{OpTime, "0", "0s"},
		{OpTime, "2d3h", "2d3h"},
		{OpString, "As Is", "As Is"},
		{OpBoolean, "TRUE", "true"},
		{OpDate, "2024-1-2", "2024/01/02 00:00:00"},
		{OpDate, "08:30", "2024/03/09 08:30:00"},
		{OpDate, "nope", "nope"},
		{OpNumberLength, "12345", "5"},
		{OpStringLength, "héllo", "5"},
		{OpNumberDouble, "2", "2"},
		{OpNumberDouble, "2.50", "2.5"},
		{OpNumberAbs, "-5", "5"},
		{OpNumberAbs, "-2.5", "2.5"},
		{OpNumberAbs, "x", "x"},
		{OpNumberNeg, "5", "-5"},
		{OpNumberNeg, "0", "0"},
		{OpNumberNeg, "1.5", "-1.5"},
		{OpNumberRound, "2.5", "2"},
		{OpNumberRound, "3.5", "4"},
		{OpNumberRound, "-0.4", "0"},
		{OpNumberRound, "x", "x"},
		{OpTimeSec, "1h20m30s", "4830"},
		{OpTimeNumber, "2m", "120"},
		{OpTimeMin, "90s", "2"},
		{OpTimeMin, "150s", "2"},
		{OpTimeHour, "5400", "2"},
		{OpTimeDay, "2d12h", "2"},
		{OpStringUpper, "abc", "ABC"},
		{OpStringLower, "ABC", "abc"},
		{OpBooleanNot, "True", "false"},
		{OpBooleanNot, "false", "true"},
		{OpBooleanNumber, "true", "1"},
		{OpBooleanNumber, "FALSE", "0"},
		{OpNumberString, "12", "12"},
		{OpStringNumber, "12.5", "12.5"},
		{OpStringNumber, "abc", "0"},
		{OpDateTime, "2024-01-01 15:06:32", "15h6m32s"},
		{OpDateTime, "2024-01-01", "0s"},
		{OpDateTime, "later", "later"},
		{OpDateNow, "1h", "2024/03/09 09:05:07"},
		{OpDateUTC, "1d", "1970/01/02 00:00:00"},
		{OpDateToday, "2h30m", "2024/03/09 02:30:00"},
		{OpDateUTC, "200000d", "2517/08/01 00:00:00"},
		{OpDateNow, "1000000d", "4762/02/04 08:05:07"},
		{OpDateNow, "-1d", "2024/03/08 08:05:07"},
	}

	r := fixedRegistry()
	for _, tc := range cases {
		t.Run(tc.op.String()+"/"+tc.in, func(t *testing.T) {
			actual, err := r.Convert(tc.op, tc.in)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestRegistry_Convert_errors(t *testing.T) {
	cases := []struct {
		op  Op
		in  string
		err error
	}{
		{OpNumberDouble, "x", ErrNotNumeric},
		{OpBooleanNot, "maybe", ErrNotBoolean},
		{OpBooleanNumber, "1", ErrNotBoolean},
		{opInvalid, "1", ErrUnknownOp},
		{opCount, "1", ErrUnknownOp},
		{OpTimeSec, "99999999999999999d", ErrOutOfRange},
		{OpTimeNumber, "9223372036854775807s1s", ErrOutOfRange},
		{OpTimeHour, "9223372036854775808", ErrOutOfRange},
		{OpDateToday, "99999999999999999d", ErrOutOfRange},
		{OpDateUTC, "3000000d", ErrOutOfRange},
		{OpDateNow, "-1000000d", ErrOutOfRange},
		{OpDateNow, "106751991167300d", ErrOutOfRange},
	}

	r := fixedRegistry()
	for _, tc := range cases {
		t.Run(tc.op.String()+"/"+tc.in, func(t *testing.T) {
			actual, err := r.Convert(tc.op, tc.in)
			assert.True(t, errors.Is(err, tc.err), "got %v", err)
			assert.Equal(t, tc.in, actual)

			var convErr *ConversionError
			assert.True(t, errors.As(err, &convErr))
		})
	}
}

func TestNumberAbsIdempotent(t *testing.T) {
	r := fixedRegistry()
	for _, literal := range []string{"0", "5", "-5", "-2.25", "3.75", "-2147483648", "1e3"} {
		t.Run(literal, func(t *testing.T) {
			once, err := r.Convert(OpNumberAbs, literal)
			assert.NoError(t, err)
			twice, err := r.Convert(OpNumberAbs, once)
			assert.NoError(t, err)
			assert.Equal(t, once, twice)
		})
	}
}

func TestLookupOp(t *testing.T) {
	for _, key := range Keys() {
		op, ok := LookupOp(key)
		assert.True(t, ok, key)
		assert.Equal(t, key, op.String())
	}

	op, ok := LookupOp(" date.time ")
	assert.True(t, ok)
	assert.Equal(t, OpDateTime, op)
	assert.Equal(t, Date, op.Type())

	_, ok = LookupOp("Number.Sqrt")
	assert.False(t, ok)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, 26)
	assert.Contains(t, keys, "Number")
	assert.Contains(t, keys, "Date.Today")
	assert.True(t, sort.StringsAreSorted(keys))
}

func TestDefaultOp(t *testing.T) {
	for _, typ := range Types() {
		op, ok := DefaultOp(typ)
		assert.True(t, ok)
		assert.Equal(t, typ.String(), op.String())
	}

	_, ok := DefaultOp(Untyped)
	assert.False(t, ok)
}
