package rules

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/openclub/clubgate/internal/types"
)

func TestStringify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "hello", "hello"},
		{"bool_true", true, "1"},
		{"bool_false", false, "0"},
		{"int64", int64(42), "42"},
		{"float_whole", float64(2), "2"},
		{"float_fraction", 2.5, "2.5"},
		{"time", time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC), "2026-03-15T10:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringify(tt.value); got != tt.want {
				t.Errorf("stringify(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestEqualValues(t *testing.T) {
	tests := []struct {
		name  string
		left  any
		right string
		want  bool
	}{
		{"text_equal", "active", "active", true},
		{"text_differs", "active", "suspended", false},
		{"numeric_normalized", int64(5), "5.0", true},
		{"numeric_differs", int64(5), "6", false},
		{"bool_true_token", true, "yes", true},
		{"bool_false_token", false, "FALSE", true},
		{"bool_mismatch", true, "0", false},
		{"bool_garbage_token", true, "maybe", false},
		{"nil_left", nil, "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := equalValues(tt.left, tt.right); got != tt.want {
				t.Errorf("equalValues(%v, %q) = %v, want %v", tt.left, tt.right, got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	values, err := splitList("a, b , ,c,")
	if err != nil {
		t.Fatalf("splitList() error = %v, want nil", err)
	}
	if len(values) != 3 || values[0] != "a" || values[1] != "b" || values[2] != "c" {
		t.Errorf("splitList() = %v, want [a b c]", values)
	}
}

func TestSplitList_TooMany(t *testing.T) {
	raw := strings.Repeat("x,", types.MaxConditionListValues+1)
	if _, err := splitList(raw); !errors.Is(err, types.ErrTooManyListValues) {
		t.Fatalf("splitList() error = %v, want ErrTooManyListValues", err)
	}
}

func TestToFloat_ExcludesBoolAndTime(t *testing.T) {
	if _, ok := toFloat(true); ok {
		t.Errorf("toFloat(true) ok = true, want false")
	}
	if _, ok := toFloat(time.Now()); ok {
		t.Errorf("toFloat(time) ok = true, want false")
	}
}

func TestEqualValuesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("integer equals its own decimal text", prop.ForAll(
		func(n int64) bool {
			return equalValues(n, strconv.FormatInt(n, 10))
		},
		gen.Int64(),
	))

	properties.Property("splitList returns trimmed non-empty values", prop.ForAll(
		func(parts []string) bool {
			raw := strings.Join(parts, types.ConditionListDelimiter)
			values, err := splitList(raw)
			if err != nil {
				return errors.Is(err, types.ErrTooManyListValues)
			}
			for _, v := range values {
				if v == "" || v != strings.TrimSpace(v) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("stringify of a bool parses back as the same bool token", prop.ForAll(
		func(b bool) bool {
			parsed, ok := parseBoolToken(stringify(b))
			return ok && parsed == b
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}
