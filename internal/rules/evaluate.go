// Package rules evaluates eligibility conditions against subject entities.
//
// Each condition check is a pure function of (condition, resolved attribute
// value): no state machine, no suspension points. Conditions on one event
// are independent predicates combined with logical AND by CheckAll, which
// never short-circuits so the caller can present every violation at once.
//
// Failure semantics follow a strict split:
//
//   - Data problems (absent attribute, non-coercible operand, unrecognized
//     option, undecodable stored value) degrade that single condition to
//     "not satisfied". They are logged for an administrator and never abort
//     the batch. Gating logic fails closed.
//   - Programmer errors (unknown operator token, unregistered entity type)
//     propagate as hard failures. Degrading them would hide a deployment
//     bug behind a polite violation message.
package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/openclub/clubgate/internal/core/metrics"
	"github.com/openclub/clubgate/internal/types"
)

// AttributeSource is the resolution capability the engine consumes;
// satisfied by *resolve.Resolver.
type AttributeSource interface {
	Resolve(ctx context.Context, entityType string, entity any, name string) (types.Resolved, error)
	Definition(ctx context.Context, entityType, name string) (*types.AttributeDefinition, bool, error)
	AttributeType(ctx context.Context, entityType, name string) (types.AttributeType, bool, error)
}

// Result is the outcome of evaluating one condition.
type Result struct {
	Satisfied bool
	Message   string // rendered violation message, empty when satisfied
	Degraded  bool   // true when a configuration defect forced fail-closed
}

// Evaluator applies conditions to subjects.
type Evaluator struct {
	attrs AttributeSource
	log   *slog.Logger
	m     *metrics.Metrics
}

// NewEvaluator creates an evaluator. log and m may be nil.
func NewEvaluator(attrs AttributeSource, log *slog.Logger, m *metrics.Metrics) *Evaluator {
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{attrs: attrs, log: log, m: m}
}

// Evaluate checks one condition against a subject entity.
//
// Data problems yield Result{Satisfied: false, Degraded: true}; only
// programmer errors return a non-nil error.
func (e *Evaluator) Evaluate(ctx context.Context, cond types.Condition, subject any) (Result, error) {
	op, err := ParseOperator(cond.Operator)
	if err != nil {
		return Result{}, err
	}

	resolved, err := e.attrs.Resolve(ctx, cond.EntityClass, subject, cond.Attribute)
	if err != nil {
		if errors.Is(err, types.ErrDecodeFailed) {
			// The stored value cannot be read as its declared type. A data
			// problem, not a programmer error: fail this condition closed.
			return e.degrade(ctx, cond, op, "stored value undecodable", err)
		}
		return Result{}, err
	}

	satisfied, degradedReason := e.apply(ctx, cond, op, resolved)
	if degradedReason != "" {
		return e.degrade(ctx, cond, op, degradedReason, nil)
	}
	if satisfied {
		e.count("satisfied")
		return Result{Satisfied: true}, nil
	}

	e.count("violated")
	msg, err := e.renderMessage(ctx, cond, op)
	if err != nil {
		return Result{}, err
	}
	return Result{Satisfied: false, Message: msg}, nil
}

// apply runs the operator against the resolved value. The second return
// names the configuration defect when the comparison could not be made at
// all; empty means the comparison executed.
func (e *Evaluator) apply(ctx context.Context, cond types.Condition, op Operator, resolved types.Resolved) (bool, string) {
	// Presence operators ignore the stored value entirely.
	switch op {
	case OpExists:
		return !resolved.Absent() && !isEmptyValue(resolved.Value), ""
	case OpNotExists:
		return resolved.Absent(), ""
	}

	// An absent attribute fails every remaining operator; it never silently
	// passes a negated one.
	if resolved.Absent() {
		return false, ""
	}

	left := resolved.Value

	switch op {
	case OpEq:
		return equalValues(left, cond.Value), ""
	case OpNeq:
		return !equalValues(left, cond.Value), ""

	case OpGt, OpGte, OpLt, OpLte:
		if lf, rf, ok := asNumbers(left, cond.Value); ok {
			return compareOrdered(op, compareFloats(lf, rf)), ""
		}
		if lt, rt, ok := asTimes(left, cond.Value); ok {
			return compareOrdered(op, compareTimes(lt, rt)), ""
		}
		return false, "operands not comparable as number or date"

	case OpContains:
		return strings.Contains(stringify(left), cond.Value), ""
	case OpNotContains:
		return !strings.Contains(stringify(left), cond.Value), ""

	case OpIn, OpNotIn:
		values, err := splitList(cond.Value)
		if err != nil {
			return false, err.Error()
		}
		member := false
		for _, v := range values {
			if equalValues(left, v) {
				member = true
				break
			}
		}
		if op == OpIn {
			return member, ""
		}
		return !member, ""

	case OpSelectOptionGte, OpSelectOptionEquals:
		return e.applyOptionOperator(ctx, cond, op, left)
	}

	return false, fmt.Sprintf("operator %s not applicable", op)
}

// applyOptionOperator implements the ordinal comparisons over an enumerated,
// ordered option list. Both sides map through the attribute definition's
// options; an unrecognized value on either side fails closed.
func (e *Evaluator) applyOptionOperator(ctx context.Context, cond types.Condition, op Operator, left any) (bool, string) {
	def, found, err := e.attrs.Definition(ctx, cond.EntityClass, cond.Attribute)
	if err != nil {
		// Definition lookup failures are infrastructure trouble; fail the
		// condition closed rather than abort the batch.
		return false, fmt.Sprintf("definition lookup failed: %v", err)
	}
	if !found || len(def.Options) == 0 {
		return false, "no option list to rank against"
	}

	subjectRank, ok := def.OptionRank(stringify(left))
	if !ok {
		return false, fmt.Sprintf("subject value %q is not a recognized option", stringify(left))
	}
	thresholdRank, ok := def.OptionRank(cond.Value)
	if !ok {
		return false, fmt.Sprintf("comparison value %q is not a recognized option", cond.Value)
	}

	if op == OpSelectOptionEquals {
		return subjectRank == thresholdRank, ""
	}
	return subjectRank >= thresholdRank, ""
}

// CheckAll evaluates every active condition against the matching subject and
// collects all violations. Evaluation order is creation order (position,
// then time-ordered id); there is no short-circuit, so repeated calls over
// the same inputs return the same violations in the same order.
//
// subjects maps entity class to the instance conditions of that class
// evaluate against, e.g. {"member": m, "event": ev}. A condition whose class
// has no subject is a wiring bug and fails hard.
func (e *Evaluator) CheckAll(ctx context.Context, conds []types.Condition, subjects map[string]any) ([]types.Violation, error) {
	ordered := make([]types.Condition, len(conds))
	copy(ordered, conds)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Position != ordered[j].Position {
			return ordered[i].Position < ordered[j].Position
		}
		return ordered[i].ID < ordered[j].ID
	})

	violations := []types.Violation{}
	for _, cond := range ordered {
		if !cond.Active {
			continue
		}

		subject, ok := subjects[cond.EntityClass]
		if !ok {
			return nil, fmt.Errorf("%w: no subject for entity class %q", types.ErrUnknownEntityType, cond.EntityClass)
		}

		res, err := e.Evaluate(ctx, cond, subject)
		if err != nil {
			return nil, err
		}
		if !res.Satisfied {
			violations = append(violations, types.Violation{
				Condition: cond,
				Message:   res.Message,
				Severity:  types.SeverityError,
			})
		}
	}

	return violations, nil
}

// degrade logs a configuration defect and fails the condition closed.
// End users only ever see the rendered violation message; the defect detail
// stays in the log for an administrator.
func (e *Evaluator) degrade(ctx context.Context, cond types.Condition, op Operator, reason string, cause error) (Result, error) {
	e.count("degraded")
	e.log.WarnContext(ctx, "condition degraded to not satisfied",
		"condition_id", string(cond.ID),
		"event_id", cond.EventID,
		"attribute", cond.Attribute,
		"operator", op.Token(),
		"reason", reason,
		"error", cause)

	msg, err := e.renderMessage(ctx, cond, op)
	if err != nil {
		return Result{}, err
	}
	return Result{Satisfied: false, Message: msg, Degraded: true}, nil
}

func (e *Evaluator) count(result string) {
	if e.m != nil {
		e.m.EvaluationsTotal.WithLabelValues(result).Inc()
	}
}
