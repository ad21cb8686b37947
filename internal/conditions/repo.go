// Package conditions persists the predicates administrators attach to
// events.
//
// Conditions are soft-disabled individually (active flag) and hard-deleted
// only together with their parent event; they have no life of their own.
// Position is assigned at creation and never rewritten, so evaluation and
// violation order stay stable for the lifetime of the event.
package conditions

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclub/clubgate/internal/core/db"
	"github.com/openclub/clubgate/internal/rules"
	"github.com/openclub/clubgate/internal/types"
)

// Repo provides event condition persistence over named queries.
type Repo struct {
	q *db.Queries
}

// NewRepo creates a condition repository.
func NewRepo(q *db.Queries) *Repo {
	return &Repo{q: q}
}

// conditionRow mirrors the event_conditions table.
type conditionRow struct {
	ID          string `db:"condition_id"`
	EventID     int64  `db:"event_id"`
	EntityClass string `db:"entity_class"`
	Attribute   string `db:"attribute_name"`
	Operator    string `db:"operator"`
	Value       string `db:"value"`
	Message     string `db:"error_message"`
	Active      bool   `db:"active"`
	Position    int    `db:"position"`
}

func (r conditionRow) toCondition() types.Condition {
	return types.Condition{
		ID:          types.ConditionID(r.ID),
		EventID:     r.EventID,
		EntityClass: r.EntityClass,
		Attribute:   r.Attribute,
		Operator:    r.Operator,
		Value:       r.Value,
		Message:     r.Message,
		Active:      r.Active,
		Position:    r.Position,
	}
}

// Create stores a new active condition at the end of the event's list.
// The operator token and the in/not_in list shape are validated here so a
// typo surfaces to the administrator immediately instead of degrading every
// later evaluation.
func (r *Repo) Create(ctx context.Context, cond types.Condition) (*types.Condition, error) {
	if err := validateCondition(&cond); err != nil {
		return nil, err
	}

	var next struct {
		NextPosition int `db:"next_position"`
	}
	if err := r.q.Get(ctx, "next-condition-position", &next, cond.EventID); err != nil {
		return nil, fmt.Errorf("failed to compute condition position: %w", err)
	}

	cond.ID = types.NewConditionID()
	cond.Active = true
	cond.Position = next.NextPosition

	_, err := r.q.Exec(ctx, "insert-condition",
		string(cond.ID), cond.EventID, cond.EntityClass, cond.Attribute,
		cond.Operator, cond.Value, cond.Message, cond.Active, cond.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert condition: %w", err)
	}

	return &cond, nil
}

// ListForEvent returns every condition of an event in creation order,
// including disabled ones (the admin UI shows both).
func (r *Repo) ListForEvent(ctx context.Context, eventID int64) ([]types.Condition, error) {
	var rows []conditionRow
	if err := r.q.Select(ctx, "list-conditions", &rows, eventID); err != nil {
		return nil, fmt.Errorf("failed to list conditions: %w", err)
	}
	return rowsToConditions(rows), nil
}

// ActiveConditions returns the active conditions of an event in creation
// order. This is the evaluation hot path.
func (r *Repo) ActiveConditions(ctx context.Context, eventID int64) ([]types.Condition, error) {
	var rows []conditionRow
	if err := r.q.Select(ctx, "list-active-conditions", &rows, eventID, true); err != nil {
		return nil, fmt.Errorf("failed to list active conditions: %w", err)
	}
	return rowsToConditions(rows), nil
}

// SetActive soft-enables or soft-disables one condition.
func (r *Repo) SetActive(ctx context.Context, id types.ConditionID, active bool) error {
	res, err := r.q.Exec(ctx, "set-condition-active", active, string(id))
	if err != nil {
		return fmt.Errorf("failed to update condition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("condition %s not found", id)
	}
	return nil
}

// DeleteForEvent hard-deletes every condition of an event, returning the
// count. Called when the parent event is deleted.
func (r *Repo) DeleteForEvent(ctx context.Context, eventID int64) (int64, error) {
	res, err := r.q.Exec(ctx, "delete-conditions-for-event", eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conditions: %w", err)
	}
	return res.RowsAffected()
}

// validateCondition rejects structurally broken conditions at creation time.
func validateCondition(cond *types.Condition) error {
	cond.Attribute = strings.TrimSpace(cond.Attribute)
	if cond.Attribute == "" {
		return fmt.Errorf("condition attribute is required")
	}
	if cond.EntityClass == "" {
		return fmt.Errorf("condition entity class is required")
	}

	op, err := rules.ParseOperator(cond.Operator)
	if err != nil {
		return err
	}
	// Persist the canonical token so aliases ("==", "<>") don't leak into
	// stored rows.
	cond.Operator = op.Token()

	if op == rules.OpIn || op == rules.OpNotIn {
		values := strings.Split(cond.Value, types.ConditionListDelimiter)
		if len(values) > types.MaxConditionListValues {
			return types.ErrTooManyListValues
		}
	}
	return nil
}

func rowsToConditions(rows []conditionRow) []types.Condition {
	conds := make([]types.Condition, 0, len(rows))
	for _, row := range rows {
		conds = append(conds, row.toCondition())
	}
	return conds
}
