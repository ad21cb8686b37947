package rules

import (
	"context"

	"github.com/openclub/clubgate/internal/types"
)

/*
 * Operator suggestion for the admin condition builder.
 *
 * The full operator dropdown is rarely what an administrator wants: ordering
 * a boolean or substring-matching a number produces conditions that only
 * ever fail closed. Suggestion narrows the list from the attribute's
 * declared (or inferred) type. Presence operators apply to everything.
 */

// SuggestOperators returns the operators sensible for an attribute, looked
// up by entity type and name. Unknown attribute names get the text operator
// set: dynamic attributes may be defined after conditions referencing them.
func (e *Evaluator) SuggestOperators(ctx context.Context, entityType, name string) ([]Operator, error) {
	attrType, found, err := e.attrs.AttributeType(ctx, entityType, name)
	if err != nil {
		return nil, err
	}
	if !found {
		attrType = types.TypeText
	}

	return OperatorsForType(attrType), nil
}

// OperatorsForType maps an attribute type onto its sensible operator set.
func OperatorsForType(t types.AttributeType) []Operator {
	switch t {
	case types.TypeBoolean:
		return []Operator{OpEq, OpNeq}

	case types.TypeNumber, types.TypeDate:
		return []Operator{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpExists, OpNotExists}

	case types.TypeSelect, types.TypeEntityRef:
		return []Operator{
			OpEq, OpNeq, OpIn, OpNotIn,
			OpSelectOptionGte, OpSelectOptionEquals,
			OpExists, OpNotExists,
		}

	case types.TypeFile:
		return []Operator{OpExists, OpNotExists}

	case types.TypeJSON:
		return []Operator{OpContains, OpNotContains, OpExists, OpNotExists}

	default: // text, textarea
		return []Operator{
			OpEq, OpNeq, OpContains, OpNotContains,
			OpIn, OpNotIn, OpExists, OpNotExists,
		}
	}
}
