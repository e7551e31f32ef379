package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseFloat parses a string to float64, handling common formats.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	// Remove commas, percent signs and currency symbols
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "₹")
	s = strings.TrimSpace(s)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return f, nil
}

// ParseRate converts a percentage value such as "7.25%" or 7.25 to a float.
// Missing or unparsable values return nil rather than zero.
func ParseRate(v any) *float64 {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(val, "%", "")), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return ToFloat(v)
	}
}

// ToFloat coerces a decoded JSON or CSV value to a float.
// Returns nil when the value is absent or not numeric.
func ToFloat(v any) *float64 {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := ParseFloat(val)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ToInt coerces a value to an int, truncating fractional parts.
func ToInt(v any) *int {
	f := ToFloat(v)
	if f == nil {
		return nil
	}
	i := int(*f)
	return &i
}

// ToString renders a scalar value as trimmed text. Nil becomes "".
func ToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return FormatNumber(val)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// ToStringSlice converts a list value to strings, skipping empty entries.
// A single string is treated as a one-element list.
func ToStringSlice(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, 0, len(val))
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				if name := ToString(m["name"]); name != "" {
					out = append(out, name)
				}
				continue
			}
			if s := ToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	}
	return nil
}

// ToBool interprets common truthy values.
func ToBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "y", "1":
			return true
		}
	case float64:
		return val != 0
	case int:
		return val != 0
	}
	return false
}

// FormatNumber prints a float without trailing zeros, e.g. 7.5 or 8.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
