// Package pipeline exposes the parser and extractors as discrete steps with
// explicit input/output contracts, for consumption by an external
// orchestrator.
//
// Every step is a pure function over immutable input: stateless, free of
// internal concurrency, and deterministic, so an orchestrator may cache or
// retry any step independently. Data flows strictly downward; no step
// reaches back upstream.
package pipeline

import (
	"fmt"

	"github.com/thalvik/arkiv/internal/fixity"
	"github.com/thalvik/arkiv/internal/mets"
	"github.com/thalvik/arkiv/internal/models"
)

// ParseSIP parses one or more METS documents into a single SIP. Structural
// failures abort the whole step; a partial SIP is never returned.
func ParseSIP(paths []string) (*models.SIP, error) {
	return mets.ParseSIP(paths)
}

// ExtractIEs returns the SIP's intellectual entities in source order.
func ExtractIEs(sip *models.SIP) ([]models.IntellectualEntity, error) {
	if sip == nil {
		return nil, fmt.Errorf("pipeline: nil SIP")
	}
	return sip.Entities, nil
}

// ExtractRepresentations flattens the entities' representations,
// preserving source order.
func ExtractRepresentations(entities []models.IntellectualEntity) ([]models.Representation, error) {
	var reps []models.Representation
	for _, ie := range entities {
		reps = append(reps, ie.Representations...)
	}
	return reps, nil
}

// ExtractFiles flattens the representations' files, preserving source
// order.
func ExtractFiles(reps []models.Representation) ([]models.File, error) {
	var files []models.File
	for _, rep := range reps {
		files = append(files, rep.Files...)
	}
	return files, nil
}

// ExtractFixities checks every file's declared checksum assertions and
// returns the complete report. Per-file failures are flagged in the report
// rather than aborting the batch; resolver may be nil to skip semantic
// verification.
func ExtractFixities(files []models.File, resolver fixity.ContentResolver) (fixity.Report, error) {
	return fixity.Validate(files, resolver), nil
}
