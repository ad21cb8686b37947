package schema

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/openclub/clubgate/internal/codec"
	"github.com/openclub/clubgate/internal/types"
)

/*
 * Value validation against a definition's validation rules.
 *
 * Rules are stored as a rule -> parameter map on the definition and applied
 * when a value is written through the store. Each rule parses its own
 * parameter; an unparseable parameter is an administrator mistake and fails
 * the write rather than being skipped.
 *
 * Supported rules: min_length, max_length, min_value, max_value, pattern,
 * allowed_extensions.
 */

var validationRules = map[string]func(def *types.AttributeDefinition, param, raw string) error{
	"min_length":         checkMinLength,
	"max_length":         checkMaxLength,
	"min_value":          checkMinValue,
	"max_value":          checkMaxValue,
	"pattern":            checkPattern,
	"allowed_extensions": checkAllowedExtensions,
}

func knownValidationRule(name string) bool {
	_, ok := validationRules[name]
	return ok
}

// ValidateValue checks a raw stored value against the definition: size cap,
// type decodability, option membership for enumerated types, then each
// configured validation rule. Returns types.ErrValidationFailed (wrapped)
// with a rule-specific message on the first failure.
func ValidateValue(def *types.AttributeDefinition, raw string) error {
	if len(raw) > types.MaxStoredValueLength {
		return types.ErrValueTooLong
	}

	// Required attributes refuse the empty write; clearing goes through
	// Remove, not an empty Set.
	if raw == "" {
		if def.Required {
			return fmt.Errorf("%w: %s is required", types.ErrValidationFailed, def.Label())
		}
		return nil
	}

	// The value must decode under the declared type before any rule runs.
	if _, err := codec.Decode(&raw, def.Type); err != nil {
		return fmt.Errorf("%w: not a valid %s value: %v", types.ErrValidationFailed, def.Type, err)
	}

	// Enumerated types only accept recognized options.
	if def.Type == types.TypeSelect || def.Type == types.TypeEntityRef {
		if !def.HasOption(raw) {
			return fmt.Errorf("%w: %q is not an option of %s", types.ErrValidationFailed, raw, def.Label())
		}
	}

	for rule, param := range def.Validation {
		check, ok := validationRules[rule]
		if !ok {
			return fmt.Errorf("%w: unknown rule %q", types.ErrValidationFailed, rule)
		}
		if err := check(def, param, raw); err != nil {
			return err
		}
	}

	return nil
}

func checkMinLength(def *types.AttributeDefinition, param, raw string) error {
	n, err := strconv.Atoi(param)
	if err != nil {
		return fmt.Errorf("%w: min_length parameter %q", types.ErrValidationFailed, param)
	}
	if len([]rune(raw)) < n {
		return fmt.Errorf("%w: %s must be at least %d characters", types.ErrValidationFailed, def.Label(), n)
	}
	return nil
}

func checkMaxLength(def *types.AttributeDefinition, param, raw string) error {
	n, err := strconv.Atoi(param)
	if err != nil {
		return fmt.Errorf("%w: max_length parameter %q", types.ErrValidationFailed, param)
	}
	if len([]rune(raw)) > n {
		return fmt.Errorf("%w: %s must be at most %d characters", types.ErrValidationFailed, def.Label(), n)
	}
	return nil
}

func checkMinValue(def *types.AttributeDefinition, param, raw string) error {
	limit, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return fmt.Errorf("%w: min_value parameter %q", types.ErrValidationFailed, param)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("%w: %s is not numeric", types.ErrValidationFailed, def.Label())
	}
	if v < limit {
		return fmt.Errorf("%w: %s must be at least %v", types.ErrValidationFailed, def.Label(), limit)
	}
	return nil
}

func checkMaxValue(def *types.AttributeDefinition, param, raw string) error {
	limit, err := strconv.ParseFloat(param, 64)
	if err != nil {
		return fmt.Errorf("%w: max_value parameter %q", types.ErrValidationFailed, param)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("%w: %s is not numeric", types.ErrValidationFailed, def.Label())
	}
	if v > limit {
		return fmt.Errorf("%w: %s must be at most %v", types.ErrValidationFailed, def.Label(), limit)
	}
	return nil
}

func checkPattern(def *types.AttributeDefinition, param, raw string) error {
	re, err := regexp.Compile(param)
	if err != nil {
		return fmt.Errorf("%w: pattern parameter %q: %v", types.ErrValidationFailed, param, err)
	}
	if !re.MatchString(raw) {
		return fmt.Errorf("%w: %s does not match the required format", types.ErrValidationFailed, def.Label())
	}
	return nil
}

func checkAllowedExtensions(def *types.AttributeDefinition, param, raw string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(raw)), ".")
	for _, allowed := range strings.Split(param, ",") {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s only accepts files of type %s", types.ErrValidationFailed, def.Label(), param)
}
