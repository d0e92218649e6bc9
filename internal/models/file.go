package models

import (
	"fmt"

	"github.com/thalvik/arkiv/internal/apperr"
)

// File is a single digital object within a representation.
type File struct {
	// ID is unique within the owning representation.
	ID string `json:"id"`

	// RepresentationID names the owning representation. Lookup only; the
	// representation owns the file's lifetime.
	RepresentationID string `json:"representation_id"`

	// OriginalName is the file's name in the source system; falls back to
	// the ID when the metadata declares none.
	OriginalName string `json:"original_name"`

	// Path is the file's location relative to the content root, empty when
	// the document declares none.
	Path string `json:"path,omitempty"`

	// MIMEType is empty when unknown.
	MIMEType string `json:"mime_type,omitempty"`

	// Size is the byte size, nil when the source metadata declares none.
	// An unknown size is distinct from a zero-byte file.
	Size *int64 `json:"size,omitempty"`

	// Fixities holds the file's checksum assertions in source order.
	Fixities []Fixity `json:"fixities,omitempty"`
}

// Algorithm is the closed set of supported fixity digest algorithms.
type Algorithm string

const (
	MD5    Algorithm = "MD5"
	SHA1   Algorithm = "SHA-1"
	SHA256 Algorithm = "SHA-256"
	SHA512 Algorithm = "SHA-512"
)

// ParseAlgorithm resolves a declared algorithm name against the closed set.
// entity names the file being built, for error reporting.
func ParseAlgorithm(value, entity string) (Algorithm, error) {
	switch a := Algorithm(value); a {
	case MD5, SHA1, SHA256, SHA512:
		return a, nil
	}
	return "", &apperr.ValidationError{
		Entity: entity,
		Field:  "fixity algorithm",
		Value:  value,
		Detail: fmt.Sprintf("must be one of %q, %q, %q, %q", MD5, SHA1, SHA256, SHA512),
	}
}

// HexLength returns the expected length of a hex-encoded digest for the
// algorithm.
func (a Algorithm) HexLength() int {
	switch a {
	case MD5:
		return 32
	case SHA1:
		return 40
	case SHA256:
		return 64
	case SHA512:
		return 128
	}
	return 0
}

// Fixity is one checksum assertion for a file.
type Fixity struct {
	// Algorithm is the declared digest algorithm.
	Algorithm Algorithm `json:"algorithm"`

	// Digest is the declared hex digest value as written in the document.
	Digest string `json:"digest"`

	// FileID names the file the assertion belongs to. Lookup only.
	FileID string `json:"file_id"`
}
