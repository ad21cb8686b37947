package rules

import (
	"fmt"

	"github.com/openclub/clubgate/internal/types"
)

/*
 * Condition operator language.
 *
 * Fourteen operators over resolved attribute values: equality, ordering,
 * substring, set membership, presence, and two ordinal comparisons over
 * enumerated option lists. Conditions persist the operator as its raw token;
 * parsing happens on every evaluation so a condition written by a newer
 * deployment fails loudly on an older one instead of silently misbehaving.
 *
 * Why function-based: a switch over a closed enum is cleaner than fourteen
 * interface implementations with minimal behavior variation.
 */

// Operator identifies one comparison of the condition language.
type Operator int

const (
	OpUnspecified Operator = iota
	OpEq
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpContains
	OpNotContains
	OpIn
	OpNotIn
	OpExists
	OpNotExists
	OpSelectOptionGte
	OpSelectOptionEquals
)

// operatorTokens maps persisted tokens to operators. "==" and "<>" are
// accepted as aliases for administrators used to other syntaxes, but the
// canonical tokens are what Token() emits.
var operatorTokens = map[string]Operator{
	"=":                    OpEq,
	"==":                   OpEq,
	"!=":                   OpNeq,
	"<>":                   OpNeq,
	">":                    OpGt,
	">=":                   OpGte,
	"<":                    OpLt,
	"<=":                   OpLte,
	"contains":             OpContains,
	"not_contains":         OpNotContains,
	"in":                   OpIn,
	"not_in":               OpNotIn,
	"exists":               OpExists,
	"not_exists":           OpNotExists,
	"select_option_gte":    OpSelectOptionGte,
	"select_option_equals": OpSelectOptionEquals,
}

// operatorLabels drive both Token() and the condition builder's operator
// dropdown.
var operatorLabels = map[Operator]struct {
	token string
	label string
}{
	OpEq:                 {"=", "equals"},
	OpNeq:                {"!=", "does not equal"},
	OpGt:                 {">", "is greater than"},
	OpGte:                {">=", "is at least"},
	OpLt:                 {"<", "is less than"},
	OpLte:                {"<=", "is at most"},
	OpContains:           {"contains", "contains"},
	OpNotContains:        {"not_contains", "does not contain"},
	OpIn:                 {"in", "is one of"},
	OpNotIn:              {"not_in", "is not one of"},
	OpExists:             {"exists", "is set"},
	OpNotExists:          {"not_exists", "is not set"},
	OpSelectOptionGte:    {"select_option_gte", "ranks at least"},
	OpSelectOptionEquals: {"select_option_equals", "is exactly"},
}

// ParseOperator converts a persisted operator token into an Operator.
// An unknown token is a deployment bug, not a data problem: it returns
// types.ErrUnknownOperator and is never degraded to "not satisfied".
func ParseOperator(token string) (Operator, error) {
	op, ok := operatorTokens[token]
	if !ok {
		return OpUnspecified, fmt.Errorf("%w: %q", types.ErrUnknownOperator, token)
	}
	return op, nil
}

// Token returns the canonical persisted token of the operator.
func (op Operator) Token() string {
	return operatorLabels[op].token
}

// Label returns the human-facing description of the operator.
func (op Operator) Label() string {
	return operatorLabels[op].label
}

// String implements fmt.Stringer.
func (op Operator) String() string {
	if op == OpUnspecified {
		return "unspecified"
	}
	return op.Token()
}

// ListAvailableOperators returns token -> display label for every operator,
// for the condition builder's unfiltered operator dropdown.
func ListAvailableOperators() map[string]string {
	out := make(map[string]string, len(operatorLabels))
	for _, entry := range operatorLabels {
		out[entry.token] = entry.label
	}
	return out
}
