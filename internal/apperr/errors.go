// Package apperr defines the error taxonomy shared by the METS parsing and
// validation layers. Callers classify failures with errors.Is against the
// sentinel kinds, or errors.As against the concrete types for details.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Each concrete error type below matches exactly one of
// these via errors.Is.
var (
	ErrParse          = errors.New("malformed document")
	ErrStructure      = errors.New("missing required structure")
	ErrReference      = errors.New("unresolved reference")
	ErrValidation     = errors.New("validation failed")
	ErrFixityMismatch = errors.New("fixity mismatch")
	ErrNotFound       = errors.New("not found")
)

// ParseError reports input that is not well-formed XML. Fatal per document.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// StructureError reports a missing required section or attribute.
// Fatal per document.
type StructureError struct {
	Section string // the section or attribute that is missing
	Detail  string
}

func (e *StructureError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("structure: missing %s: %s", e.Section, e.Detail)
	}
	return fmt.Sprintf("structure: missing %s", e.Section)
}

func (e *StructureError) Is(target error) bool { return target == ErrStructure }

// ReferenceError reports an ID reference that does not resolve to any
// element in the document. Fatal per document.
type ReferenceError struct {
	ID      string // the unresolved identifier
	Context string // where the reference was encountered
}

func (e *ReferenceError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("reference: %s points to unknown ID %q", e.Context, e.ID)
	}
	return fmt.Sprintf("reference: unknown ID %q", e.ID)
}

func (e *ReferenceError) Is(target error) bool { return target == ErrReference }

// ValidationError reports a value that violates a closed-set or format
// constraint: an unrecognized representation type, a malformed digest,
// a duplicate identifier. Fatal for the entity being built.
type ValidationError struct {
	Entity string // identifier of the entity being built
	Field  string
	Value  string
	Detail string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation: %s: %s %q", e.Entity, e.Field, e.Value)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FixityMismatchError reports a recomputed digest that differs from the
// declared one. It is carried inside fixity reports, never used to abort
// a batch.
type FixityMismatchError struct {
	FileID    string
	Algorithm string
	Declared  string
	Computed  string
}

func (e *FixityMismatchError) Error() string {
	return fmt.Sprintf("fixity: file %s: %s digest mismatch: declared %s, computed %s",
		e.FileID, e.Algorithm, e.Declared, e.Computed)
}

func (e *FixityMismatchError) Is(target error) bool { return target == ErrFixityMismatch }
