package models

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Number is a form value coerced the way a browser coerces input text. Values
// that are not finite encode as JSON null.
type Number float64

var radixPrefixes = map[string]int{"0x": 16, "0o": 8, "0b": 2}

// NaN is the value of any input that does not parse.
var NaN = Number(math.NaN())

// CoerceNumber converts s like Number(s): surrounding whitespace is ignored,
// an empty string is 0 and anything unparsable is NaN.
func CoerceNumber(s string) Number {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return Number(math.Inf(1))
	case "-Infinity":
		return Number(math.Inf(-1))
	}
	lower := strings.ToLower(s)
	for prefix, base := range radixPrefixes {
		if strings.HasPrefix(lower, prefix) {
			if v, err := strconv.ParseUint(s[2:], base, 64); err == nil {
				return Number(v)
			}
			return NaN
		}
	}
	// ParseFloat also accepts "inf", "nan" and digit separators.
	if strings.ContainsAny(lower, "in_") {
		return NaN
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NaN
	}
	return Number(f)
}

// CoerceInt converts s like parseInt(s, 10): leading whitespace is skipped and
// the longest integer prefix is used. No digits at all yields NaN.
func CoerceInt(s string) Number {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return NaN
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return NaN
	}
	return Number(v)
}

// CoerceFloat converts s like parseFloat(s): leading whitespace is skipped and
// the longest decimal prefix is used, so "50/hr" is 50. An "Infinity" prefix
// is infinite. No digits at all yields NaN.
func CoerceFloat(s string) Number {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	if strings.HasPrefix(s[end:], "Infinity") {
		if s[0] == '-' {
			return Number(math.Inf(-1))
		}
		return Number(math.Inf(1))
	}
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
			digits++
		}
	}
	if digits == 0 {
		return NaN
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		expDigits := exp
		for exp < len(s) && s[exp] >= '0' && s[exp] <= '9' {
			exp++
		}
		if exp > expDigits {
			end = exp
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return NaN
	}
	return Number(v)
}

func (n Number) IsNaN() bool {
	return math.IsNaN(float64(n))
}

func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (n Number) Float64() float64 {
	return float64(n)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(n), 'f', -1, 64)), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NaN
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}
