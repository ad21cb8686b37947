package types

/*
 * Domain types for eligibility conditions.
 *
 * A Condition is one predicate attached to a gating event: target entity
 * class, attribute name, operator, right-hand value, optional message
 * override, active flag. Conditions are immutable descriptions; all
 * interpretation (operator parsing, coercion, comparison) happens in
 * internal/rules.
 *
 * Conditions belonging to one event are implicitly AND-combined. Position
 * records creation order and fixes the evaluation (and therefore violation
 * reporting) order.
 */

// Condition is one predicate gating an action on an event.
type Condition struct {
	ID          ConditionID
	EventID     int64
	EntityClass string // entity type the predicate evaluates against, e.g. "member"
	Attribute   string
	Operator    string // raw operator token, parsed by the evaluation engine
	Value       string // right-hand operand; may encode a list via ConditionListDelimiter
	Message     string // optional violation message override
	Active      bool
	Position    int // creation order, drives deterministic evaluation order
}

// Severity classifies a violation. The engine emits only SeverityError today;
// the field exists so the registration workflow can degrade some conditions
// to warnings without a contract change.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is one unsatisfied condition, carrying the rendered
// human-readable message for the registration workflow.
type Violation struct {
	Condition Condition
	Message   string
	Severity  Severity
}
