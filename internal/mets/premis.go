package mets

import (
	"strconv"

	"github.com/thalvik/arkiv/internal/apperr"
	"github.com/thalvik/arkiv/internal/models"
)

// techInfo is the technical metadata extracted from one amdSec's PREMIS
// object description.
type techInfo struct {
	originalName string
	size         *int64
	mimeType     string
	category     string
	fixities     []models.Fixity
}

// parseTechMD extracts PREMIS object characteristics from an amdSec.
// entity names the file or entity the section describes, for error
// reporting. Sections without a PREMIS object yield an empty techInfo.
func parseTechMD(amdSec *element, entity string) (techInfo, error) {
	var ti techInfo

	object := amdSec.firstDescendant(nsPREMIS, "object")
	if object == nil {
		return ti, nil
	}

	if name := object.firstDescendant(nsPREMIS, "originalName"); name != nil {
		ti.originalName = name.trimmedText()
	}
	if cat := object.firstChild(nsPREMIS, "objectCategory"); cat != nil {
		ti.category = cat.trimmedText()
	}

	chars := object.firstDescendant(nsPREMIS, "objectCharacteristics")
	if chars == nil {
		return ti, nil
	}

	if sizeEl := chars.firstChild(nsPREMIS, "size"); sizeEl != nil {
		raw := sizeEl.trimmedText()
		if raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 0 {
				return ti, &apperr.ValidationError{
					Entity: entity,
					Field:  "size",
					Value:  raw,
					Detail: "must be a non-negative integer",
				}
			}
			ti.size = &n
		}
	}

	if format := chars.firstDescendant(nsPREMIS, "formatName"); format != nil {
		ti.mimeType = format.trimmedText()
	}

	for _, fix := range chars.childrenNS(nsPREMIS, "fixity") {
		algoEl := fix.firstChild(nsPREMIS, "messageDigestAlgorithm")
		digestEl := fix.firstChild(nsPREMIS, "messageDigest")
		if algoEl == nil || digestEl == nil {
			return ti, &apperr.StructureError{
				Section: "premis:fixity",
				Detail:  entity + ": fixity requires messageDigestAlgorithm and messageDigest",
			}
		}

		algo, err := models.ParseAlgorithm(algoEl.trimmedText(), entity)
		if err != nil {
			return ti, err
		}
		digest := digestEl.trimmedText()
		if digest == "" {
			return ti, &apperr.ValidationError{
				Entity: entity,
				Field:  "fixity digest",
				Value:  "",
				Detail: "digest value is empty",
			}
		}

		ti.fixities = append(ti.fixities, models.Fixity{
			Algorithm: algo,
			Digest:    digest,
		})
	}

	return ti, nil
}
