// Package resolve hides the heterogeneity of attribute storage behind a
// single resolution contract.
//
// An attribute on an entity can live in three places: a compiled-in field
// (native), a registered derived function (computed), or the dynamic
// entity-attribute-value store. Resolution tries the strategies in that fixed
// order; first match wins. The ordering lets administrators reference one
// attribute name uniformly regardless of where it physically lives, and lets
// an attribute migrate from dynamic to native without breaking existing
// condition configurations.
//
// Dispatch is an explicit, closed table: each entity type registers its
// accessor and computed maps at startup. There is no reflection and no
// method-name guessing; asking about an unregistered entity type is a
// programmer error, not an empty result.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openclub/clubgate/internal/codec"
	"github.com/openclub/clubgate/internal/core/metrics"
	"github.com/openclub/clubgate/internal/types"
)

// Attribute is one resolvable entry of a descriptor: a display label and
// declared type for the condition builder plus an accessor. Get returns
// ok=false when the entity instance is not of the descriptor's concrete type.
type Attribute struct {
	Label string
	Type  types.AttributeType
	Get   func(entity any) (value any, ok bool)
}

// Descriptor is the closed attribute table of one entity type.
type Descriptor struct {
	EntityType string
	Native     map[string]Attribute
	Computed   map[string]Attribute

	// ID extracts the instance identifier used for dynamic store lookups.
	ID func(entity any) (int64, bool)
}

// DynamicSource is the value store capability the resolver consumes.
type DynamicSource interface {
	Get(ctx context.Context, entityType string, entityID int64, name string) (types.EntityAttribute, bool, error)
}

// SchemaSource is the definition lookup capability the resolver consumes.
type SchemaSource interface {
	Get(ctx context.Context, entityType, name string) (*types.AttributeDefinition, bool, error)
	ListActive(ctx context.Context, entityType string) ([]types.AttributeDefinition, error)
}

// Resolver resolves attribute names on entity instances.
type Resolver struct {
	descriptors map[string]Descriptor
	values      DynamicSource
	schema      SchemaSource
	log         *slog.Logger
	m           *metrics.Metrics
}

// New creates a resolver. values and schemaSrc may be nil for purely
// compiled-in setups (tests, previews without a database); log and m may be
// nil.
func New(values DynamicSource, schemaSrc SchemaSource, log *slog.Logger, m *metrics.Metrics) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		descriptors: make(map[string]Descriptor),
		values:      values,
		schema:      schemaSrc,
		log:         log,
		m:           m,
	}
}

// Register installs an entity type's descriptor. Registration happens once at
// startup; re-registering an entity type is a wiring bug.
func (r *Resolver) Register(d Descriptor) error {
	if d.EntityType == "" {
		return fmt.Errorf("descriptor has no entity type")
	}
	if _, exists := r.descriptors[d.EntityType]; exists {
		return fmt.Errorf("descriptor for %q already registered", d.EntityType)
	}
	r.descriptors[d.EntityType] = d
	return nil
}

// EntityTypes returns the registered entity type identifiers.
func (r *Resolver) EntityTypes() []string {
	out := make([]string, 0, len(r.descriptors))
	for t := range r.descriptors {
		out = append(out, t)
	}
	return out
}

// Resolve returns the value of an attribute on an entity instance, trying
// native accessor, computed table, then dynamic store. Absence is a
// first-class result, not an error.
//
// Returns types.ErrUnknownEntityType for unregistered entity types and an
// error when the instance does not match the descriptor's concrete type;
// both indicate deployment bugs and are never degraded to "absent".
func (r *Resolver) Resolve(ctx context.Context, entityType string, entity any, name string) (types.Resolved, error) {
	d, ok := r.descriptors[entityType]
	if !ok {
		return types.Resolved{}, fmt.Errorf("%w: %q", types.ErrUnknownEntityType, entityType)
	}

	if attr, ok := d.Native[name]; ok {
		v, ok := attr.Get(entity)
		if !ok {
			return types.Resolved{}, fmt.Errorf("entity instance %T does not match descriptor %q", entity, entityType)
		}
		return r.resolved(v, attrOrInferredType(attr, v), types.SourceNative), nil
	}

	if attr, ok := d.Computed[name]; ok {
		v, ok := attr.Get(entity)
		if !ok {
			return types.Resolved{}, fmt.Errorf("entity instance %T does not match descriptor %q", entity, entityType)
		}
		return r.resolved(v, attrOrInferredType(attr, v), types.SourceComputed), nil
	}

	res, err := r.resolveDynamic(ctx, d, entityType, entity, name)
	if err != nil {
		return types.Resolved{}, err
	}
	return res, nil
}

// resolveDynamic is the value-store fallback strategy.
func (r *Resolver) resolveDynamic(ctx context.Context, d Descriptor, entityType string, entity any, name string) (types.Resolved, error) {
	if r.values == nil || d.ID == nil {
		return r.resolved(nil, types.TypeText, types.SourceAbsent), nil
	}

	id, ok := d.ID(entity)
	if !ok {
		return types.Resolved{}, fmt.Errorf("entity instance %T does not match descriptor %q", entity, entityType)
	}

	attr, found, err := r.values.Get(ctx, entityType, id, name)
	if err != nil {
		return types.Resolved{}, err
	}
	if !found {
		return r.resolved(nil, types.TypeText, types.SourceAbsent), nil
	}

	// Decode with the definition's declared type when one exists; fall back
	// to the type denormalized into the row, then to text.
	attrType := attr.Type
	if r.schema != nil {
		def, defFound, err := r.schema.Get(ctx, entityType, name)
		if err != nil {
			return types.Resolved{}, err
		}
		if defFound {
			attrType = def.Type
		}
	}
	if _, err := types.ParseAttributeType(string(attrType)); err != nil {
		attrType = types.TypeText
	}

	v, err := codec.Decode(&attr.Value, attrType)
	if err != nil {
		return types.Resolved{}, fmt.Errorf("attribute %s.%s: %w", entityType, name, err)
	}
	return r.resolved(v, attrType, types.SourceDynamic), nil
}

func (r *Resolver) resolved(v any, t types.AttributeType, src types.Source) types.Resolved {
	if r.m != nil {
		r.m.ResolutionsTotal.WithLabelValues(src.String()).Inc()
	}
	return types.Resolved{Value: v, Type: t, Source: src}
}

// Definition looks up the attribute definition backing a dynamic attribute.
// Used by the evaluation engine for option-list operators.
func (r *Resolver) Definition(ctx context.Context, entityType, name string) (*types.AttributeDefinition, bool, error) {
	if r.schema == nil {
		return nil, false, nil
	}
	return r.schema.Get(ctx, entityType, name)
}

// AttributeType returns the declared type of an attribute without needing an
// entity instance: native/computed declarations first, then the dynamic
// definition. The second return is false when the name is unknown everywhere.
// Used by operator suggestion in the condition builder.
func (r *Resolver) AttributeType(ctx context.Context, entityType, name string) (types.AttributeType, bool, error) {
	d, ok := r.descriptors[entityType]
	if !ok {
		return "", false, fmt.Errorf("%w: %q", types.ErrUnknownEntityType, entityType)
	}

	if attr, ok := d.Native[name]; ok {
		return attrDeclaredType(attr), true, nil
	}
	if attr, ok := d.Computed[name]; ok {
		return attrDeclaredType(attr), true, nil
	}
	if r.schema != nil {
		def, found, err := r.schema.Get(ctx, entityType, name)
		if err != nil {
			return "", false, err
		}
		if found {
			return def.Type, true, nil
		}
	}
	return "", false, nil
}

// ListAvailableAttributes returns the union of native, computed and dynamic
// attribute names mapped to display labels, for the condition builder's
// attribute dropdown. An earlier resolution source shadows later ones, the
// same way Resolve does.
func (r *Resolver) ListAvailableAttributes(ctx context.Context, entityType string) (map[string]string, error) {
	d, ok := r.descriptors[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownEntityType, entityType)
	}

	out := make(map[string]string)
	for name, attr := range d.Native {
		out[name] = attr.Label
	}
	for name, attr := range d.Computed {
		if _, exists := out[name]; !exists {
			out[name] = attr.Label
		}
	}
	if r.schema != nil {
		defs, err := r.schema.ListActive(ctx, entityType)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			if _, exists := out[def.Name]; !exists {
				out[def.Name] = def.Label()
			}
		}
	}
	return out, nil
}

func attrDeclaredType(attr Attribute) types.AttributeType {
	if attr.Type != "" {
		return attr.Type
	}
	return types.TypeText
}

// attrOrInferredType prefers the declared type, falling back to inference
// from the runtime value for descriptors that left Type unset.
func attrOrInferredType(attr Attribute, v any) types.AttributeType {
	if attr.Type != "" {
		return attr.Type
	}
	return inferType(v)
}

// inferType maps a native/computed Go value onto the attribute type scale so
// the engine can reason about compiled-in attributes too.
func inferType(v any) types.AttributeType {
	switch v.(type) {
	case bool:
		return types.TypeBoolean
	case int, int64, float64:
		return types.TypeNumber
	case time.Time:
		return types.TypeDate
	default:
		return types.TypeText
	}
}
