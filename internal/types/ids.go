package types

import (
	"time"

	"github.com/google/uuid"
)

// DefinitionID represents a UUIDv7 attribute definition identifier.
// String alias enables type safety while maintaining JSON string serialization.
// UUIDv7 time-ordering ensures sequential IDs cluster in B-tree indexes.
type DefinitionID string

// ConditionID represents a UUIDv7 event condition identifier.
type ConditionID string

// NewDefinitionID generates a UUIDv7 definition identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewDefinitionID() DefinitionID {
	return DefinitionID(uuid.Must(uuid.NewV7()).String())
}

// NewConditionID generates a UUIDv7 condition identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewConditionID() ConditionID {
	return ConditionID(uuid.Must(uuid.NewV7()).String())
}

// ParseDefinitionID validates and converts a string to DefinitionID.
// Rejects malformed UUIDs to prevent invalid IDs from entering the system.
func ParseDefinitionID(s string) (DefinitionID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return DefinitionID(s), nil
}

// ParseConditionID validates and converts a string to ConditionID.
func ParseConditionID(s string) (ConditionID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return ConditionID(s), nil
}

// ConditionIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Enables creation-order tie-breaking without a database lookup.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func ConditionIDTime(id ConditionID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
