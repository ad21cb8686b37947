package types

import "errors"

// Sentinel errors for clubgate operations.
//
// The split between data problems and programmer errors matters: coercion and
// resolution failures degrade a single condition to "not satisfied" (fail
// closed), while ErrUnknownOperator and ErrUnknownEntityType indicate a
// deployment bug and are propagated as hard failures.
var (
	// ErrDuplicateDefinition indicates an active definition already exists
	// for the (entity type, attribute name) pair.
	ErrDuplicateDefinition = errors.New("active attribute definition already exists")

	// ErrDefinitionNotFound indicates no definition matches the
	// (entity type, attribute name) pair.
	ErrDefinitionNotFound = errors.New("attribute definition not found")

	// ErrUnknownAttributeType indicates a type string outside the closed
	// attribute type set.
	ErrUnknownAttributeType = errors.New("unknown attribute type")

	// ErrUnknownOperator indicates a condition references an operator the
	// engine was never told about. Hard failure, never fail-closed.
	ErrUnknownOperator = errors.New("unknown condition operator")

	// ErrUnknownEntityType indicates resolution was requested for an entity
	// type with no registered descriptor. Hard failure, never fail-closed.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrDecodeFailed indicates a stored value could not be decoded into
	// its declared type (e.g. a malformed date).
	ErrDecodeFailed = errors.New("stored value decode failed")

	// ErrStorageConflict indicates the value store's atomic upsert lost a
	// race twice in a row. Surfaces to the caller after one retry.
	ErrStorageConflict = errors.New("attribute upsert conflict")

	// ErrValidationFailed indicates a written value violated the
	// definition's validation rules.
	ErrValidationFailed = errors.New("attribute value validation failed")

	// ErrValueTooLong indicates a stored value exceeds MaxStoredValueLength.
	ErrValueTooLong = errors.New("attribute value exceeds maximum size")

	// ErrTooManyListValues indicates an in/not_in operand exceeds
	// MaxConditionListValues after splitting.
	ErrTooManyListValues = errors.New("condition list has too many values")
)
