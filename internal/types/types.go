// Package types provides domain models shared across clubgate components.
//
// Zero-dependency design: types.go, conditions.go and errors.go use only the
// standard library so the evaluation core can be embedded without pulling in
// storage or CLI dependencies. ID utilities in ids.go import uuid but are
// isolated for selective inclusion.
//
// All attribute values are persisted as text regardless of declared type; the
// codec package owns the text <-> typed value conversion. Nothing above the
// value store should ever interpret a raw stored string itself.
package types

import "time"

// AttributeType declares how a stored text value is to be interpreted.
// String alias keeps the database representation human-readable.
type AttributeType string

// Supported attribute types. The set is closed: the codec rejects anything
// else, and the schema registry refuses to define attributes outside it.
const (
	TypeText      AttributeType = "text"
	TypeTextarea  AttributeType = "textarea"
	TypeNumber    AttributeType = "number"
	TypeBoolean   AttributeType = "boolean"
	TypeDate      AttributeType = "date"
	TypeSelect    AttributeType = "select"
	TypeFile      AttributeType = "file"
	TypeJSON      AttributeType = "json"
	TypeEntityRef AttributeType = "entity_reference"
)

// ParseAttributeType validates a raw type string.
// Returns ErrUnknownAttributeType for anything outside the closed set.
func ParseAttributeType(s string) (AttributeType, error) {
	switch AttributeType(s) {
	case TypeText, TypeTextarea, TypeNumber, TypeBoolean, TypeDate,
		TypeSelect, TypeFile, TypeJSON, TypeEntityRef:
		return AttributeType(s), nil
	}
	return "", ErrUnknownAttributeType
}

// Option is one entry of an enumerated option list (select / entity_reference
// attributes). Order within the definition's option list is significant: it
// defines the ordinal rank used by the select_option_gte operator.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ValidationRules maps rule name to its parameter, e.g. "min_length" -> "2",
// "pattern" -> "^[A-Z]", "allowed_extensions" -> "jpg,png,pdf".
// Parameters stay strings; each rule parses its own parameter on use.
type ValidationRules map[string]string

// Resource limits enforced by the schema registry and condition repository.
const (
	// MaxAttributeNameLength bounds attribute names; names are used as map
	// keys and appear in user-facing violation messages.
	MaxAttributeNameLength = 128

	// MaxStoredValueLength caps a single stored attribute value. Larger
	// payloads (file bytes, documents) belong in external storage; file
	// attributes store a path only.
	MaxStoredValueLength = 64 * 1024

	// MaxOptionCount limits the option list of a select attribute.
	// 256 options covers realistic certification/rank ladders while keeping
	// option-rank lookup cost trivial.
	MaxOptionCount = 256

	// MaxConditionListValues limits the right-hand operand of in/not_in
	// after delimiter splitting, preventing quadratic membership cost.
	MaxConditionListValues = 64
)

// ConditionListDelimiter splits the right-hand operand of in/not_in into a
// set of values. Comma matches what administrators type into the builder.
const ConditionListDelimiter = ","

// AttributeDefinition is schema metadata for one named, typed attribute
// available on an entity type. Definitions are never physically removed;
// deactivation keeps historic values interpretable.
type AttributeDefinition struct {
	ID           DefinitionID
	EntityType   string
	Name         string
	DisplayName  string
	Type         AttributeType
	Required     bool
	DefaultValue string
	Description  string
	Options      []Option
	Validation   ValidationRules
	DisplayOrder int
	Active       bool
	CreatedAt    time.Time
}

// OptionRank returns the 1-based position of value in the definition's
// option list. The second return is false when the value is not a recognized
// option; ordinal operators fail closed on that outcome.
func (d *AttributeDefinition) OptionRank(value string) (int, bool) {
	for i, opt := range d.Options {
		if opt.Value == value {
			return i + 1, true
		}
	}
	return 0, false
}

// HasOption reports whether value is a recognized option of the definition.
func (d *AttributeDefinition) HasOption(value string) bool {
	_, ok := d.OptionRank(value)
	return ok
}

// Label returns the human-facing name of the attribute, falling back to the
// raw attribute name when no display name was configured.
func (d *AttributeDefinition) Label() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.Name
}

// EntityAttribute is one value cell of the entity-attribute-value store:
// (entity type, entity id, attribute name) -> stored text value.
// Type is denormalized from the definition at write time so the value stays
// interpretable even if the definition is later altered or deactivated.
type EntityAttribute struct {
	EntityType string
	EntityID   int64
	Name       string
	Value      string
	Type       AttributeType
	UpdatedAt  time.Time
}

// Source identifies where an attribute value was resolved from.
type Source int

const (
	// SourceAbsent means no strategy produced a value. Absent is a
	// first-class outcome distinct from an empty string; it drives the
	// exists/not_exists operators.
	SourceAbsent Source = iota

	// SourceNative means a compiled-in field accessor produced the value.
	SourceNative

	// SourceComputed means a registered derived-attribute function
	// produced the value.
	SourceComputed

	// SourceDynamic means the entity-attribute-value store produced the
	// value, decoded per the matching definition's type.
	SourceDynamic
)

// String implements fmt.Stringer for logging and metrics labels.
func (s Source) String() string {
	switch s {
	case SourceNative:
		return "native"
	case SourceComputed:
		return "computed"
	case SourceDynamic:
		return "dynamic"
	default:
		return "absent"
	}
}

// Resolved is the runtime-only result of attribute resolution.
type Resolved struct {
	Value  any           // typed value (nil when Source == SourceAbsent)
	Type   AttributeType // declared or inferred type; TypeText when unknown
	Source Source
}

// Absent reports whether resolution produced no value at all.
func (r Resolved) Absent() bool {
	return r.Source == SourceAbsent
}
