package mets

import "github.com/thalvik/arkiv/internal/models"

// parseDublinCore collects the recognized Dublin Core elements from a dmdSec
// subtree. Elements are repeatable: every occurrence is kept, in document
// order. Elements outside the recognized set (and non-DC metadata wrapped in
// the same section) are skipped; the extractor is tolerant of richer
// documents than it understands.
func parseDublinCore(dmdSec *element) models.DublinCore {
	var dc models.DublinCore

	xmlData := dmdSec.firstDescendant(nsMETS, "xmlData")
	if xmlData == nil {
		return dc
	}

	// dc:* elements may sit directly under xmlData or inside a record
	// wrapper; walking the subtree covers both layouts.
	xmlData.walk(func(el *element) {
		if el.space != nsDC {
			return
		}
		value := el.trimmedText()
		if value == "" {
			return
		}
		switch el.local {
		case "title":
			dc.Title = append(dc.Title, value)
		case "creator":
			dc.Creator = append(dc.Creator, value)
		case "date":
			dc.Date = append(dc.Date, value)
		case "type":
			dc.Type = append(dc.Type, value)
		case "identifier":
			dc.Identifier = append(dc.Identifier, value)
		case "rights":
			dc.Rights = append(dc.Rights, value)
		}
	})

	return dc
}
