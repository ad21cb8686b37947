package rules

import (
	"strconv"
	"strings"
	"time"

	"github.com/openclub/clubgate/internal/types"
)

/*
 * Comparison coercion.
 *
 * The two sides of a condition arrive in different shapes: the left side is
 * a resolved typed value (string, bool, int64, float64, time.Time or decoded
 * JSON), the right side is always the text an administrator typed. Operators
 * pick the comparison domain:
 *
 *   - equality: numeric when both sides coerce to numbers, else string
 *   - ordering: numeric first, date second, otherwise not coercible
 *   - substring/membership: string
 *
 * Coercion failure is never an error here; operators fail closed on the
 * zero results. The evaluation engine decides what to log.
 */

// stringify renders a resolved value in the same text form the codec would
// store, so dynamic and native values compare identically.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// toFloat converts a resolved value to float64 when it is numeric.
// Booleans and dates are excluded: "true > 0" and epoch arithmetic are
// configuration mistakes, not comparisons.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// asNumbers coerces both sides to float64 for numeric comparison.
func asNumbers(left any, right string) (float64, float64, bool) {
	lf, lok := toFloat(left)
	rf, rok := toFloat(right)
	return lf, rf, lok && rok
}

// toTime converts a resolved value to a calendar value. Strings go through
// the codec's accepted date layouts.
func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// asTimes coerces both sides to calendar values for date ordering.
func asTimes(left any, right string) (time.Time, time.Time, bool) {
	lt, lok := toTime(left)
	rt, rok := toTime(right)
	return lt, rt, lok && rok
}

// equalValues implements the equality domain: numeric compare when both
// sides parse as numbers, string compare otherwise. Boolean left sides
// accept "1"/"true" and "0"/"false" on the right.
func equalValues(left any, right string) bool {
	if lf, rf, ok := asNumbers(left, right); ok {
		return lf == rf
	}
	if b, isBool := left.(bool); isBool {
		if rb, ok := parseBoolToken(right); ok {
			return b == rb
		}
	}
	return stringify(left) == right
}

// parseBoolToken normalizes the right-hand tokens administrators write for
// boolean attributes.
func parseBoolToken(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	default:
		return false, false
	}
}

// splitList splits an in/not_in right-hand operand into trimmed, non-empty
// values. Returns types.ErrTooManyListValues past the size cap.
func splitList(raw string) ([]string, error) {
	parts := strings.Split(raw, types.ConditionListDelimiter)
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		values = append(values, p)
	}
	if len(values) > types.MaxConditionListValues {
		return nil, types.ErrTooManyListValues
	}
	return values, nil
}

// isEmptyValue reports whether a resolved value counts as empty for the
// exists operator: present but blank does not satisfy exists.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}
