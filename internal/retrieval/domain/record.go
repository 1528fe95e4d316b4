package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityType identifies which store a record or result belongs to
type EntityType string

const (
	EntityEmail   EntityType = "email"
	EntityContact EntityType = "contact"
	EntityNote    EntityType = "note"
)

// EntityTypes lists every type in presentation order.
var EntityTypes = []EntityType{EntityEmail, EntityContact, EntityNote}

// ParseEntityType accepts singular or plural names, case-insensitively.
func ParseEntityType(s string) (EntityType, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, t := range EntityTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, s)
}

// Noun returns "email" or "emails" depending on n.
func (t EntityType) Noun(n int) string {
	if n == 1 {
		return string(t)
	}
	return string(t) + "s"
}

// TextField is one named piece of searchable text
type TextField struct {
	Name  string
	Value string
}

// EmbeddedRecord is implemented by every searchable entity
type EmbeddedRecord interface {
	RecordID() string
	Owner() string
	Kind() EntityType
	// ExternalKey is the source system id used to deduplicate imports.
	ExternalKey() string
	TextFields() []TextField
	// EncodedEmbedding is the stored vector, empty when not yet embedded.
	EncodedEmbedding() string
	SetEmbedding(encoded string)
	// Clone returns a copy that shares no mutable state with the receiver.
	Clone() EmbeddedRecord
	Timestamp() time.Time
	ToResult(relevance float64, display string) QueryResult
}
