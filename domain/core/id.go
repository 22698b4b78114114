package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	EntityID ID
	RecordID ID
	StageID  ID
)

// String conversions for domain IDs
func (id EntityID) String() string { return ID(id).String() }
func (id RecordID) String() string { return ID(id).String() }
func (id StageID) String() string  { return ID(id).String() }

// Empty checks for domain IDs. Defined types do not inherit the
// underlying type's method set, so each subtype wraps ID explicitly.
func (id EntityID) IsEmpty() bool { return ID(id).IsEmpty() }
func (id RecordID) IsEmpty() bool { return ID(id).IsEmpty() }
func (id StageID) IsEmpty() bool  { return ID(id).IsEmpty() }

// ParseEntityID parses a string into EntityID
func ParseEntityID(s string) (EntityID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("entity ID cannot be empty")
	}
	return EntityID(s), nil
}

// ParseRecordID parses a string into RecordID
func ParseRecordID(s string) (RecordID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("record ID cannot be empty")
	}
	return RecordID(s), nil
}

// ParseStageID parses a string into StageID
func ParseStageID(s string) (StageID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("stage ID cannot be empty")
	}
	return StageID(s), nil
}

// StageIDPtr returns a pointer to a StageID, for the nullable id fields
// carried by transition inputs.
func StageIDPtr(s string) *StageID {
	id := StageID(s)
	return &id
}

// StageIDEqual compares two nullable stage ids. Both nil counts as equal.
func StageIDEqual(a, b *StageID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
