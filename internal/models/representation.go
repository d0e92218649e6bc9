package models

import (
	"fmt"

	"github.com/thalvik/arkiv/internal/apperr"
)

// RepresentationType is the closed set of recognized representation
// variants. The source value is matched case-sensitively; anything else is
// a validation error, never a silent default.
type RepresentationType string

const (
	RepresentationPreservation RepresentationType = "preservation"
	RepresentationAccess       RepresentationType = "access"
	RepresentationOriginal     RepresentationType = "original"
)

// ParseRepresentationType resolves a source type string against the closed
// set. entity names the representation being built, for error reporting.
func ParseRepresentationType(value, entity string) (RepresentationType, error) {
	switch t := RepresentationType(value); t {
	case RepresentationPreservation, RepresentationAccess, RepresentationOriginal:
		return t, nil
	}
	return "", &apperr.ValidationError{
		Entity: entity,
		Field:  "representation type",
		Value:  value,
		Detail: fmt.Sprintf("must be one of %q, %q, %q",
			RepresentationPreservation, RepresentationAccess, RepresentationOriginal),
	}
}

// Representation is one rendition of an intellectual entity's content.
type Representation struct {
	// ID identifies the representation within the document.
	ID string `json:"id"`

	// Type is the representation's usage variant.
	Type RepresentationType `json:"type"`

	// Label is an optional human-readable name.
	Label string `json:"label,omitempty"`

	// Files holds the representation's files in structural-map order.
	// File identifiers are unique within the representation.
	Files []File `json:"files"`
}
