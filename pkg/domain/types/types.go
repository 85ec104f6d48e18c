package types

import (
	"strings"
)

// StudyID represents a study identifier. Study and coordinator identifiers
// are minted by the external record-management system; this service only
// carries them.
type StudyID string

// String returns the string representation
func (id StudyID) String() string {
	return string(id)
}

// CoordinatorID represents a coordinator identifier
type CoordinatorID string

// String returns the string representation
func (id CoordinatorID) String() string {
	return string(id)
}

// ProtocolNumber represents a study protocol number
type ProtocolNumber string

// String returns the string representation
func (n ProtocolNumber) String() string {
	return string(n)
}

// ParseStudyIDs parses a comma-separated study ID list, skipping empty elements
func ParseStudyIDs(s string) []StudyID {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	ids := make([]StudyID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ids = append(ids, StudyID(p))
	}
	return ids
}
