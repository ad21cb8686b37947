package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openclub/clubgate/internal/types"
)

// renderMessage produces the human-readable violation message: the
// condition's configured override when present, otherwise a default composed
// from the attribute's display label and the operator. Internal coercion
// detail never appears here; it goes to the log only.
func (e *Evaluator) renderMessage(ctx context.Context, cond types.Condition, op Operator) (string, error) {
	if strings.TrimSpace(cond.Message) != "" {
		return cond.Message, nil
	}

	label := cond.Attribute
	value := cond.Value

	def, found, err := e.attrs.Definition(ctx, cond.EntityClass, cond.Attribute)
	if err != nil {
		return "", err
	}
	if found {
		label = def.Label()
		// Enumerated values read better under their option label.
		for _, opt := range def.Options {
			if opt.Value == cond.Value && opt.Label != "" {
				value = opt.Label
				break
			}
		}
	}

	return defaultMessage(op, label, value), nil
}

// defaultMessage composes the fallback violation text for one operator.
func defaultMessage(op Operator, label, value string) string {
	switch op {
	case OpEq, OpSelectOptionEquals:
		return fmt.Sprintf("%s must be %q", label, value)
	case OpNeq:
		return fmt.Sprintf("%s must not be %q", label, value)
	case OpGt:
		return fmt.Sprintf("%s must be greater than %s", label, value)
	case OpGte:
		return fmt.Sprintf("%s must be at least %s", label, value)
	case OpLt:
		return fmt.Sprintf("%s must be less than %s", label, value)
	case OpLte:
		return fmt.Sprintf("%s must be at most %s", label, value)
	case OpContains:
		return fmt.Sprintf("%s must contain %q", label, value)
	case OpNotContains:
		return fmt.Sprintf("%s must not contain %q", label, value)
	case OpIn:
		return fmt.Sprintf("%s must be one of: %s", label, value)
	case OpNotIn:
		return fmt.Sprintf("%s must not be one of: %s", label, value)
	case OpExists:
		return fmt.Sprintf("%s is required", label)
	case OpNotExists:
		return fmt.Sprintf("%s must not be set", label)
	case OpSelectOptionGte:
		return fmt.Sprintf("%s must be at least %q", label, value)
	default:
		return fmt.Sprintf("requirement on %s not met", label)
	}
}

// compareOrdered maps a three-way comparison onto an ordering operator.
func compareOrdered(op Operator, cmp int) bool {
	switch op {
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	default:
		return false
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
