// Package schema stores and queries typed attribute definitions per owning
// entity type.
//
// Definitions are schema metadata only; values live in the attrstore package.
// A definition is never physically removed: deactivation keeps historic
// values interpretable. Changing an attribute's type in place is not offered
// at all, since it would silently corrupt decode of existing values; the
// expected path is deactivate + define under a new name.
package schema

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openclub/clubgate/internal/core/db"
	"github.com/openclub/clubgate/internal/types"
)

// Registry provides attribute definition management over named queries.
type Registry struct {
	q   *db.Queries
	now func() time.Time
}

// NewRegistry creates a registry backed by the given query set.
func NewRegistry(q *db.Queries) *Registry {
	return &Registry{q: q, now: time.Now}
}

// definitionRow mirrors the attribute_definitions table.
type definitionRow struct {
	ID           string    `db:"definition_id"`
	EntityType   string    `db:"entity_type"`
	Name         string    `db:"attribute_name"`
	DisplayName  string    `db:"display_name"`
	Type         string    `db:"attribute_type"`
	Required     bool      `db:"required"`
	DefaultValue string    `db:"default_value"`
	Description  string    `db:"description"`
	Options      string    `db:"options"`
	Validation   string    `db:"validation_rules"`
	DisplayOrder int       `db:"display_order"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
}

// Define creates a new active attribute definition.
// Returns types.ErrDuplicateDefinition when an active definition already
// exists for (EntityType, Name); the partial unique index backs the check, so
// concurrent Define calls cannot both succeed.
func (r *Registry) Define(ctx context.Context, def types.AttributeDefinition) (*types.AttributeDefinition, error) {
	if err := validateDefinition(&def); err != nil {
		return nil, err
	}

	def.ID = types.NewDefinitionID()
	def.Active = true
	def.CreatedAt = r.now().UTC()

	options, err := json.Marshal(orEmptyOptions(def.Options))
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}
	validation, err := json.Marshal(orEmptyRules(def.Validation))
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation rules: %w", err)
	}

	_, err = r.q.Exec(ctx, "insert-definition",
		string(def.ID), def.EntityType, def.Name, def.DisplayName, string(def.Type),
		def.Required, def.DefaultValue, def.Description, string(options), string(validation),
		def.DisplayOrder, def.Active, def.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, types.ErrDuplicateDefinition
		}
		return nil, fmt.Errorf("failed to insert definition: %w", err)
	}

	return &def, nil
}

// Get returns the definition for (entityType, name), preferring an active one
// over deactivated predecessors. The second return is false when no
// definition has ever existed under that name.
func (r *Registry) Get(ctx context.Context, entityType, name string) (*types.AttributeDefinition, bool, error) {
	var row definitionRow
	err := r.q.Get(ctx, "get-definition", &row, entityType, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query definition: %w", err)
	}

	def, err := rowToDefinition(row)
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

// ListActive returns all active definitions for an entity type, ordered by
// (display order, display name) for stable admin form rendering.
func (r *Registry) ListActive(ctx context.Context, entityType string) ([]types.AttributeDefinition, error) {
	var rows []definitionRow
	if err := r.q.Select(ctx, "list-active-definitions", &rows, entityType, true); err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}

	defs := make([]types.AttributeDefinition, 0, len(rows))
	for _, row := range rows {
		def, err := rowToDefinition(row)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

// Deactivate performs the logical delete of an active definition.
// Existing values are untouched; they remain decodable through the type
// denormalized into each value row. Returns types.ErrDefinitionNotFound when
// no active definition matches.
func (r *Registry) Deactivate(ctx context.Context, entityType, name string) error {
	res, err := r.q.Exec(ctx, "deactivate-definition", false, entityType, name, true)
	if err != nil {
		return fmt.Errorf("failed to deactivate definition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return types.ErrDefinitionNotFound
	}
	return nil
}

// validateDefinition checks structural validity before insert.
func validateDefinition(def *types.AttributeDefinition) error {
	def.Name = strings.TrimSpace(def.Name)
	if def.Name == "" {
		return fmt.Errorf("attribute name is required")
	}
	if len(def.Name) > types.MaxAttributeNameLength {
		return fmt.Errorf("attribute name exceeds %d characters", types.MaxAttributeNameLength)
	}
	if def.EntityType == "" {
		return fmt.Errorf("entity type is required")
	}
	if _, err := types.ParseAttributeType(string(def.Type)); err != nil {
		return err
	}
	if len(def.Options) > types.MaxOptionCount {
		return fmt.Errorf("option list exceeds %d entries", types.MaxOptionCount)
	}
	if (def.Type == types.TypeSelect || def.Type == types.TypeEntityRef) && len(def.Options) == 0 {
		return fmt.Errorf("%s attributes require a non-empty option list", def.Type)
	}
	for rule := range def.Validation {
		if !knownValidationRule(rule) {
			return fmt.Errorf("unknown validation rule %q", rule)
		}
	}
	return nil
}

func rowToDefinition(row definitionRow) (*types.AttributeDefinition, error) {
	var options []types.Option
	if row.Options != "" {
		if err := json.Unmarshal([]byte(row.Options), &options); err != nil {
			return nil, fmt.Errorf("failed to decode options for %s.%s: %w", row.EntityType, row.Name, err)
		}
	}

	var validation types.ValidationRules
	if row.Validation != "" {
		if err := json.Unmarshal([]byte(row.Validation), &validation); err != nil {
			return nil, fmt.Errorf("failed to decode validation rules for %s.%s: %w", row.EntityType, row.Name, err)
		}
	}

	return &types.AttributeDefinition{
		ID:           types.DefinitionID(row.ID),
		EntityType:   row.EntityType,
		Name:         row.Name,
		DisplayName:  row.DisplayName,
		Type:         types.AttributeType(row.Type),
		Required:     row.Required,
		DefaultValue: row.DefaultValue,
		Description:  row.Description,
		Options:      options,
		Validation:   validation,
		DisplayOrder: row.DisplayOrder,
		Active:       row.Active,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func orEmptyOptions(opts []types.Option) []types.Option {
	if opts == nil {
		return []types.Option{}
	}
	return opts
}

func orEmptyRules(rules types.ValidationRules) types.ValidationRules {
	if rules == nil {
		return types.ValidationRules{}
	}
	return rules
}
