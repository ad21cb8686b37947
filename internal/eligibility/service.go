// Package eligibility answers the one question the registration flow asks:
// may this member register for this event, and if not, why not.
//
// It is a thin facade over the condition repository and the rule evaluator;
// it owns no policy of its own beyond assembling the subjects each condition
// class is checked against.
package eligibility

import (
	"context"
	"fmt"

	"github.com/openclub/clubgate/internal/rules"
	"github.com/openclub/clubgate/internal/types"
)

// ConditionSource loads the active conditions of an event.
type ConditionSource interface {
	ActiveConditions(ctx context.Context, eventID int64) ([]types.Condition, error)
}

// Service checks members against event conditions.
type Service struct {
	conditions ConditionSource
	eval       *rules.Evaluator
}

// NewService creates an eligibility service.
func NewService(conditions ConditionSource, eval *rules.Evaluator) *Service {
	return &Service{conditions: conditions, eval: eval}
}

// Violations evaluates every active condition of the event against the
// member and the event itself, and returns all violations in condition
// creation order. An empty slice means the member is eligible.
func (s *Service) Violations(ctx context.Context, member *types.Member, event *types.Event) ([]types.Violation, error) {
	conds, err := s.conditions.ActiveConditions(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conditions for event %d: %w", event.ID, err)
	}

	subjects := map[string]any{
		types.EntityMember: member,
		types.EntityEvent:  event,
	}
	return s.eval.CheckAll(ctx, conds, subjects)
}

// IsEligible reports whether the member passes every active condition of
// the event.
func (s *Service) IsEligible(ctx context.Context, member *types.Member, event *types.Event) (bool, error) {
	violations, err := s.Violations(ctx, member, event)
	if err != nil {
		return false, err
	}
	return len(violations) == 0, nil
}
