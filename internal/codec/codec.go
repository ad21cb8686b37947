// Package codec converts between the storage representation of an attribute
// value (always text) and its typed runtime form, given a declared attribute
// type.
//
// The stringly-typed store is a deliberate simplification of the data model;
// this package is the only place that interprets raw stored strings. Callers
// above the store never see them.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openclub/clubgate/internal/types"
)

// Date storage uses RFC 3339. Decode additionally accepts the two date
// shapes legacy imports produced.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decode converts a stored text value into its typed runtime form.
//
// A nil stored value decodes to nil regardless of type; a null is never
// parsed. Select, file and entity_reference values are plain strings at this
// layer: option-list membership is the evaluation engine's concern, not the
// codec's.
//
// Returns types.ErrDecodeFailed (wrapped) when the stored text cannot be
// parsed as the declared type. That is a hard error here; the evaluation
// engine decides whether to degrade it to fail-closed.
func Decode(stored *string, t types.AttributeType) (any, error) {
	if stored == nil {
		return nil, nil
	}
	s := *stored

	switch t {
	case types.TypeText, types.TypeTextarea, types.TypeSelect,
		types.TypeFile, types.TypeEntityRef:
		return s, nil

	case types.TypeNumber:
		return decodeNumber(s)

	case types.TypeBoolean:
		// Stored as "1"/"0"; anything other than "1" is false.
		return s == "1", nil

	case types.TypeDate:
		return decodeDate(s)

	case types.TypeJSON:
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("%w: invalid json: %v", types.ErrDecodeFailed, err)
		}
		return v, nil

	default:
		return nil, types.ErrUnknownAttributeType
	}
}

// Encode converts a typed runtime value into its storage text form.
// A nil value encodes to the empty string.
func Encode(value any, t types.AttributeType) (string, error) {
	if value == nil {
		return "", nil
	}

	switch t {
	case types.TypeText, types.TypeTextarea, types.TypeSelect,
		types.TypeFile, types.TypeEntityRef:
		s, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%w: expected string for %s, got %T",
				types.ErrDecodeFailed, t, value)
		}
		return s, nil

	case types.TypeNumber:
		return encodeNumber(value)

	case types.TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("%w: expected bool, got %T", types.ErrDecodeFailed, value)
		}
		if b {
			return "1", nil
		}
		return "0", nil

	case types.TypeDate:
		ts, ok := value.(time.Time)
		if !ok {
			return "", fmt.Errorf("%w: expected time.Time, got %T", types.ErrDecodeFailed, value)
		}
		return ts.UTC().Format(time.RFC3339), nil

	case types.TypeJSON:
		raw, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrDecodeFailed, err)
		}
		return string(raw), nil

	default:
		return "", types.ErrUnknownAttributeType
	}
}

// decodeNumber parses a stored number: float when the text contains a decimal
// point, integer otherwise. Whitespace-only strings are not valid numbers.
func decodeNumber(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty number", types.ErrDecodeFailed)
	}
	if strings.ContainsRune(s, '.') {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrDecodeFailed, err)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecodeFailed, err)
	}
	return n, nil
}

// encodeNumber formats a numeric value in its natural string form.
// Strings that already parse as numbers pass through unchanged so admin
// input does not get reformatted.
func encodeNumber(value any) (string, error) {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case string:
		if _, err := decodeNumber(v); err != nil {
			return "", err
		}
		return strings.TrimSpace(v), nil
	default:
		return "", fmt.Errorf("%w: expected number, got %T", types.ErrDecodeFailed, value)
	}
}

// decodeDate parses a stored timestamp trying the accepted layouts in order.
// A parse failure is a hard error, never a null.
func decodeDate(s string) (any, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return nil, fmt.Errorf("%w: invalid date %q", types.ErrDecodeFailed, s)
}
