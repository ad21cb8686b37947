// Package attrstore stores and queries per-instance attribute values: the
// entity-attribute-value side of the dynamic attribute system.
//
// Rows are keyed by (entity type, entity id, attribute name) and hold the
// value as text plus the attribute type denormalized at write time. Values
// outlive their definitions deliberately; a deactivated definition never
// cascades into this store.
//
// The store is the only mutable shared resource of the evaluation core. Its
// uniqueness invariant is enforced by the database itself: the upsert is a
// single conditional statement (INSERT ... ON CONFLICT DO UPDATE), never a
// read-then-insert pair, so two concurrent writers targeting the same tuple
// cannot produce two rows.
package attrstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openclub/clubgate/internal/core/db"
	"github.com/openclub/clubgate/internal/core/metrics"
	"github.com/openclub/clubgate/internal/schema"
	"github.com/openclub/clubgate/internal/types"
)

// FileReleaser releases an externally stored file resource. The store calls
// it when a file-typed value is removed; actual file storage is a collaborator
// outside this core.
type FileReleaser interface {
	Release(ctx context.Context, path string) error
}

// Store provides attribute value persistence over named queries.
// schema and files may be nil: a nil schema skips write validation (used by
// bulk imports that validate upstream), a nil files skips file release.
type Store struct {
	q      *db.Queries
	schema *schema.Registry
	files  FileReleaser
	log    *slog.Logger
	m      *metrics.Metrics
	now    func() time.Time
}

// New creates a value store. log may be nil (falls back to slog.Default),
// as may schema, files and m.
func New(q *db.Queries, schemaReg *schema.Registry, files FileReleaser, log *slog.Logger, m *metrics.Metrics) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{q: q, schema: schemaReg, files: files, log: log, m: m, now: time.Now}
}

// attributeRow mirrors the entity_attributes table.
type attributeRow struct {
	EntityType string    `db:"entity_type"`
	EntityID   int64     `db:"entity_id"`
	Name       string    `db:"attribute_name"`
	Value      string    `db:"attribute_value"`
	Type       string    `db:"attribute_type"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r attributeRow) toAttribute() types.EntityAttribute {
	return types.EntityAttribute{
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Name:       r.Name,
		Value:      r.Value,
		Type:       types.AttributeType(r.Type),
		UpdatedAt:  r.UpdatedAt,
	}
}

// Set upserts a value for (entityType, entityID, name).
//
// When a matching definition exists, the value is validated against it and
// the definition's declared type overrides attrType, so rows always carry the
// type the value was interpretable as at write time.
//
// A lost race on the conditional upsert is retried once; a second loss
// surfaces as types.ErrStorageConflict.
func (s *Store) Set(ctx context.Context, entityType string, entityID int64, name, raw string, attrType types.AttributeType) error {
	if _, err := types.ParseAttributeType(string(attrType)); err != nil {
		return err
	}

	if s.schema != nil {
		def, found, err := s.schema.Get(ctx, entityType, name)
		if err != nil {
			return err
		}
		if found {
			if err := schema.ValidateValue(def, raw); err != nil {
				return err
			}
			attrType = def.Type
		}
	}
	if len(raw) > types.MaxStoredValueLength {
		return types.ErrValueTooLong
	}

	err := s.upsert(ctx, entityType, entityID, name, raw, attrType)
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err) {
		return fmt.Errorf("failed to upsert attribute: %w", err)
	}

	// Rare: the conditional upsert itself lost a race (driver-dependent).
	// Retry once, then surface.
	if s.m != nil {
		s.m.UpsertConflictsTotal.Inc()
	}
	s.log.WarnContext(ctx, "attribute upsert conflict, retrying",
		"entity_type", entityType, "entity_id", entityID, "attribute", name)

	if err := s.upsert(ctx, entityType, entityID, name, raw, attrType); err != nil {
		if db.IsUniqueViolation(err) {
			return types.ErrStorageConflict
		}
		return fmt.Errorf("failed to upsert attribute: %w", err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, entityType string, entityID int64, name, raw string, attrType types.AttributeType) error {
	_, err := s.q.Exec(ctx, "upsert-attribute",
		entityType, entityID, name, raw, string(attrType), s.now().UTC())
	return err
}

// Get returns the value cell for (entityType, entityID, name).
// The second return is false when no row exists; callers must treat that as
// absent, not as an empty value.
func (s *Store) Get(ctx context.Context, entityType string, entityID int64, name string) (types.EntityAttribute, bool, error) {
	var row attributeRow
	err := s.q.Get(ctx, "get-attribute", &row, entityType, entityID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return types.EntityAttribute{}, false, nil
	}
	if err != nil {
		return types.EntityAttribute{}, false, fmt.Errorf("failed to query attribute: %w", err)
	}
	return row.toAttribute(), true, nil
}

// GetAll returns every stored attribute of one entity instance, keyed by
// attribute name.
func (s *Store) GetAll(ctx context.Context, entityType string, entityID int64) (map[string]types.EntityAttribute, error) {
	var rows []attributeRow
	if err := s.q.Select(ctx, "list-attributes", &rows, entityType, entityID); err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}

	all := make(map[string]types.EntityAttribute, len(rows))
	for _, row := range rows {
		all[row.Name] = row.toAttribute()
	}
	return all, nil
}

// Remove deletes one value cell. Returns whether a row existed.
// File-typed values also release the referenced file resource.
func (s *Store) Remove(ctx context.Context, entityType string, entityID int64, name string) (bool, error) {
	attr, found, err := s.Get(ctx, entityType, entityID, name)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	if _, err := s.q.Exec(ctx, "delete-attribute", entityType, entityID, name); err != nil {
		return false, fmt.Errorf("failed to delete attribute: %w", err)
	}

	s.releaseFile(ctx, attr)
	return true, nil
}

// RemoveAll deletes every value cell of one entity instance, returning the
// number of removed cells. Called when the owning entity is deleted; value
// cells have no identity of their own.
func (s *Store) RemoveAll(ctx context.Context, entityType string, entityID int64) (int64, error) {
	all, err := s.GetAll(ctx, entityType, entityID)
	if err != nil {
		return 0, err
	}

	res, err := s.q.Exec(ctx, "delete-all-attributes", entityType, entityID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attributes: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	for _, attr := range all {
		s.releaseFile(ctx, attr)
	}
	return count, nil
}

// releaseFile notifies the file collaborator for file-typed cells.
// Release failures are logged, not propagated: the row is already gone and a
// dangling file is an operational cleanup concern, not a data defect.
func (s *Store) releaseFile(ctx context.Context, attr types.EntityAttribute) {
	if s.files == nil || attr.Type != types.TypeFile || attr.Value == "" {
		return
	}
	if err := s.files.Release(ctx, attr.Value); err != nil {
		s.log.WarnContext(ctx, "failed to release file for removed attribute",
			"entity_type", attr.EntityType, "entity_id", attr.EntityID,
			"attribute", attr.Name, "path", attr.Value, "error", err)
	}
}
