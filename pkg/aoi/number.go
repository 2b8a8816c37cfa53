package aoi

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Number is a float that encodes NaN and infinities as JSON null.
type Number float64

// IsNaN reports whether the value failed to parse.
func (n Number) IsNaN() bool { return math.IsNaN(float64(n)) }

// MarshalJSON encodes NaN and infinities as null, other values as JSON numbers.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return jsNumberString(f)
}

// DieCount holds a parsed bond die count. When Valid is false the count was
// falsy on the wire and is encoded as the empty string.
type DieCount struct {
	Value float64
	Valid bool
}

// MarshalJSON encodes an invalid count as "" and a valid one as a Number.
func (d DieCount) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`""`), nil
	}
	return Number(d.Value).MarshalJSON()
}

func (d DieCount) String() string {
	if !d.Valid {
		return ""
	}
	return Number(d.Value).String()
}

// parseFloatValue converts a raw JSON value to a float with parseFloat
// semantics: strings are scanned for their longest numeric prefix, numbers
// pass through, arrays are scanned in their comma-joined string form, and
// everything else (absent, null, booleans, objects) is NaN.
func parseFloatValue(raw json.RawMessage) float64 {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return math.NaN()
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return math.NaN()
		}
		return parseFloatPrefix(s)
	case '[':
		joined, ok := joinArray(v)
		if !ok {
			return math.NaN()
		}
		return parseFloatPrefix(joined)
	case 'n', 't', 'f', '{':
		return math.NaN()
	default:
		return parseNumberLiteral(string(v))
	}
}

// joinArray renders a JSON array the way Array.prototype.join(",") does:
// null elements are empty, nested arrays are joined in place.
func joinArray(raw json.RawMessage) (string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", false
	}
	parts := make([]string, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 {
			continue
		}
		switch item[0] {
		case 'n':
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return "", false
			}
			parts[i] = s
		case '[':
			inner, ok := joinArray(item)
			if !ok {
				return "", false
			}
			parts[i] = inner
		case '{':
			parts[i] = "[object Object]"
		case 't', 'f':
			parts[i] = string(item)
		default:
			parts[i] = Number(parseNumberLiteral(string(item))).String()
		}
	}
	return strings.Join(parts, ","), true
}

// truthy reports whether a raw JSON value would pass a JavaScript truthiness check.
func truthy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch v[0] {
	case 'n', 'f':
		return false
	case 't', '[', '{':
		return true
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return false
		}
		return s != ""
	default:
		f := parseNumberLiteral(string(v))
		return f != 0 && !math.IsNaN(f)
	}
}

func parseNumberLiteral(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f
		}
		return math.NaN()
	}
	return f
}

// parseFloatPrefix parses the longest decimal prefix of s after leading
// whitespace. "Infinity" is recognised; hex, underscores and NaN are not.
func parseFloatPrefix(s string) float64 {
	s = strings.TrimLeftFunc(s, isJSSpace)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return math.NaN()
	}

	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			end = k
		}
	}

	return parseNumberLiteral(s[:end])
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isJSSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// jsNumberString renders a float the way template literals stringify numbers.
func jsNumberString(f float64) string {
	if f == 0 {
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		s = strings.Replace(s, "e+0", "e+", 1)
		return strings.Replace(s, "e-0", "e-", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
