// Package models defines the OAIS object graph produced by the METS parser.
//
// The graph is a strict ownership tree: SIP → IntellectualEntity →
// Representation → File → Fixity. Every value is built once during a parse
// and treated as read-only afterwards; no stage of the pipeline mutates its
// input.
package models

import "time"

// SIP is a Submission Information Package, the root of the object graph.
type SIP struct {
	// ID is the package identifier, taken from the document's OBJID
	// attribute or derived from the source file name.
	ID string `json:"id"`

	// SubmittingAgent is the CREATOR agent named in the package header,
	// or "Unknown" when the header carries none.
	SubmittingAgent string `json:"submitting_agent"`

	// CreatedAt is the parse timestamp, in UTC.
	CreatedAt time.Time `json:"created_at"`

	// SourcePaths lists the XML documents this SIP was assembled from,
	// in the order they were parsed.
	SourcePaths []string `json:"source_paths"`

	// Entities holds the intellectual entities in source order. Entity
	// identifiers are unique within the SIP.
	Entities []IntellectualEntity `json:"entities"`
}

// IntellectualEntity is one distinct preservable unit within a SIP.
type IntellectualEntity struct {
	// ID is required and unique within the owning SIP.
	ID string `json:"id"`

	// EntityType is an optional classification from the administrative
	// metadata; empty when the document declares none.
	EntityType string `json:"entity_type,omitempty"`

	// DC carries the entity's Dublin Core descriptive metadata.
	DC DublinCore `json:"dc"`

	// Representations are the entity's renditions in source order.
	Representations []Representation `json:"representations"`
}

// DublinCore holds the recognized descriptive metadata fields. Dublin Core
// elements are repeatable, so every field is an ordered sequence of values
// preserving source-document order. Elements outside this closed set are
// discarded at parse time.
type DublinCore struct {
	Title      []string `json:"title,omitempty"`
	Creator    []string `json:"creator,omitempty"`
	Date       []string `json:"date,omitempty"`
	Type       []string `json:"type,omitempty"`
	Identifier []string `json:"identifier,omitempty"`
	Rights     []string `json:"rights,omitempty"`
}

// Empty reports whether no recognized field carries a value.
func (dc DublinCore) Empty() bool {
	return len(dc.Title) == 0 && len(dc.Creator) == 0 && len(dc.Date) == 0 &&
		len(dc.Type) == 0 && len(dc.Identifier) == 0 && len(dc.Rights) == 0
}
