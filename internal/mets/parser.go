// Package mets parses METS XML documents into the OAIS object graph.
//
// Parsing is two-phase. The structural phase decodes the document into an
// element tree, verifies the required sections exist and builds an ID index
// over the metadata and file sections. The semantic phase walks the
// structural map in document order, resolves every file reference through
// the index and assembles the typed model. Structural failures are
// all-or-nothing per document: a partial SIP is never returned.
package mets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/thalvik/arkiv/internal/apperr"
	"github.com/thalvik/arkiv/internal/models"
)

// ParseSIP parses one or more METS documents into a single SIP. The first
// document is the primary one and supplies the package identifier and
// submitting agent; intellectual entities from the remaining documents are
// merged in path order. Entity identifiers must be unique across the merged
// package.
func ParseSIP(paths []string) (*models.SIP, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("mets: at least one document path is required")
	}

	sip := &models.SIP{
		CreatedAt:   time.Now().UTC(),
		SourcePaths: append([]string(nil), paths...),
	}

	seen := make(map[string]struct{}, len(paths))
	for i, path := range paths {
		doc, err := ParseDocument(path)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			sip.ID = doc.SIPID
			sip.SubmittingAgent = doc.SubmittingAgent
		}
		if _, dup := seen[doc.Entity.ID]; dup {
			return nil, &apperr.ValidationError{
				Entity: doc.Entity.ID,
				Field:  "entity identifier",
				Value:  doc.Entity.ID,
				Detail: "duplicate within package",
			}
		}
		seen[doc.Entity.ID] = struct{}{}
		sip.Entities = append(sip.Entities, doc.Entity)
	}

	return sip, nil
}

// Document is the parsed form of one METS file: package-level metadata plus
// the single intellectual entity the document describes.
type Document struct {
	SIPID           string
	SubmittingAgent string
	Entity          models.IntellectualEntity
}

// ParseDocument parses a single METS file from disk.
func ParseDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &apperr.ParseError{Path: path, Err: err}
	}
	return ParseDocumentBytes(path, data)
}

// ParseDocumentBytes parses raw METS XML. path is used for error reporting
// and identifier defaults only.
func ParseDocumentBytes(path string, data []byte) (*Document, error) {
	root, err := decodeTree(bytes.NewReader(data))
	if err != nil {
		return nil, &apperr.ParseError{Path: path, Err: err}
	}

	idx, err := indexDocument(root)
	if err != nil {
		return nil, err
	}

	entity, err := idx.buildEntity()
	if err != nil {
		return nil, err
	}

	return &Document{
		SIPID:           sipID(root, path),
		SubmittingAgent: submittingAgent(root),
		Entity:          entity,
	}, nil
}

// docIndex is the structural-phase output: the decoded tree plus an ID index
// over its sections, consulted during the semantic phase and discarded
// afterwards. The final model carries only resolved relations.
type docIndex struct {
	root      *element
	structMap *element
	dmdSecs   map[string]*element
	amdSecs   map[string]*element
	files     map[string]*element // file elements by ID
	fileGrps  map[string]*element // owning fileGrp, keyed by file ID
	grpOrder  map[*element]int    // fileGrp position in fileSec, for ID defaults
}

// indexDocument verifies the required sections and builds the ID index.
func indexDocument(root *element) (*docIndex, error) {
	if !root.is(nsMETS, "mets") {
		return nil, &apperr.StructureError{
			Section: "mets root element",
			Detail:  fmt.Sprintf("found <%s>", root.local),
		}
	}

	idx := &docIndex{
		root:     root,
		dmdSecs:  make(map[string]*element),
		amdSecs:  make(map[string]*element),
		files:    make(map[string]*element),
		fileGrps: make(map[string]*element),
		grpOrder: make(map[*element]int),
	}

	for _, sec := range root.childrenNS(nsMETS, "dmdSec") {
		if id := sec.attr("ID"); id != "" {
			idx.dmdSecs[id] = sec
		}
	}
	for _, sec := range root.childrenNS(nsMETS, "amdSec") {
		if id := sec.attr("ID"); id != "" {
			idx.amdSecs[id] = sec
		}
	}

	fileSec := root.firstChild(nsMETS, "fileSec")
	if fileSec == nil {
		return nil, &apperr.StructureError{Section: "fileSec"}
	}
	for i, grp := range fileSec.childrenNS(nsMETS, "fileGrp") {
		idx.grpOrder[grp] = i
		for _, file := range grp.childrenNS(nsMETS, "file") {
			id := file.attr("ID")
			if id == "" {
				// Unreferencable without an ID; the structural map
				// cannot point at it.
				continue
			}
			idx.files[id] = file
			idx.fileGrps[id] = grp
		}
	}

	idx.structMap = root.firstChild(nsMETS, "structMap")
	if idx.structMap == nil {
		return nil, &apperr.StructureError{Section: "structMap"}
	}
	if len(idx.dmdSecs) == 0 {
		return nil, &apperr.StructureError{Section: "dmdSec"}
	}

	return idx, nil
}

// buildEntity assembles the document's intellectual entity: Dublin Core
// descriptive metadata plus the representations resolved from the
// structural map.
func (idx *docIndex) buildEntity() (models.IntellectualEntity, error) {
	dmdSec, ok := idx.dmdSecs[ieDmdID]
	if !ok {
		return models.IntellectualEntity{}, &apperr.StructureError{
			Section: fmt.Sprintf("dmdSec %q", ieDmdID),
		}
	}

	dc := parseDublinCore(dmdSec)
	if len(dc.Identifier) == 0 {
		return models.IntellectualEntity{}, &apperr.StructureError{
			Section: "dc:identifier",
			Detail:  "intellectual entity has no identifier",
		}
	}
	entity := models.IntellectualEntity{
		ID: dc.Identifier[0],
		DC: dc,
	}

	if amdSec, ok := idx.amdSecs[ieAmdID]; ok {
		ti, err := parseTechMD(amdSec, entity.ID)
		if err != nil {
			return models.IntellectualEntity{}, err
		}
		entity.EntityType = ti.category
	}

	reps, err := idx.buildRepresentations()
	if err != nil {
		return models.IntellectualEntity{}, err
	}
	entity.Representations = reps

	return entity, nil
}

// Well-known section identifiers for the entity's own metadata.
const (
	ieDmdID = "ie-dmd"
	ieAmdID = "ie-amd"
)

// buildRepresentations walks the structural map in document order. Each
// fptr must resolve to a file element; the owning fileGrp defines the
// representation. Representation order is the order of first appearance in
// the structural map, file order within a representation is fptr order.
func (idx *docIndex) buildRepresentations() ([]models.Representation, error) {
	var reps []models.Representation
	repByGrp := make(map[*element]int)
	seenFiles := make(map[*element]map[string]struct{})

	var walkErr error
	var visitDiv func(div *element, label string)
	visitDiv = func(div *element, label string) {
		for _, child := range div.children {
			if walkErr != nil {
				return
			}
			switch {
			case child.is(nsMETS, "div"):
				visitDiv(child, child.attr("LABEL"))
			case child.is(nsMETS, "fptr"):
				walkErr = idx.resolveFptr(child, label, &reps, repByGrp, seenFiles)
			}
		}
	}

	for _, div := range idx.structMap.childrenNS(nsMETS, "div") {
		visitDiv(div, div.attr("LABEL"))
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return reps, nil
}

// resolveFptr resolves one structural-map file pointer and appends the file
// to its representation, creating the representation on first sight.
func (idx *docIndex) resolveFptr(fptr *element, label string, reps *[]models.Representation,
	repByGrp map[*element]int, seenFiles map[*element]map[string]struct{}) error {

	fileID := fptr.attr("FILEID")
	if fileID == "" {
		return &apperr.StructureError{Section: "fptr FILEID"}
	}

	fileEl, ok := idx.files[fileID]
	if !ok {
		return &apperr.ReferenceError{ID: fileID, Context: "structural map"}
	}
	grp := idx.fileGrps[fileID]

	pos, ok := repByGrp[grp]
	if !ok {
		rep, err := idx.newRepresentation(grp, label)
		if err != nil {
			return err
		}
		*reps = append(*reps, rep)
		pos = len(*reps) - 1
		repByGrp[grp] = pos
		seenFiles[grp] = make(map[string]struct{})
	}
	rep := &(*reps)[pos]

	if _, dup := seenFiles[grp][fileID]; dup {
		return &apperr.ValidationError{
			Entity: rep.ID,
			Field:  "file identifier",
			Value:  fileID,
			Detail: "duplicate within representation",
		}
	}
	seenFiles[grp][fileID] = struct{}{}

	file, err := idx.buildFile(fileEl, fileID, rep.ID)
	if err != nil {
		return err
	}
	rep.Files = append(rep.Files, file)
	return nil
}

// newRepresentation builds a representation from its fileGrp. The USE
// attribute carries the type and is matched case-sensitively against the
// closed set; an unknown value is a validation error, never a default.
func (idx *docIndex) newRepresentation(grp *element, label string) (models.Representation, error) {
	repID := grp.attr("ID")
	if repID == "" {
		repID = fmt.Sprintf("rep-%d", idx.grpOrder[grp]+1)
	}

	use := grp.attr("USE")
	if use == "" {
		return models.Representation{}, &apperr.StructureError{
			Section: "fileGrp USE",
			Detail:  fmt.Sprintf("representation %s has no type", repID),
		}
	}
	repType, err := models.ParseRepresentationType(use, repID)
	if err != nil {
		return models.Representation{}, err
	}

	return models.Representation{
		ID:    repID,
		Type:  repType,
		Label: label,
	}, nil
}

// buildFile assembles a file from its file element and the administrative
// metadata referenced by its ADMID attribute. Every referenced section must
// exist; a dangling ADMID is a reference error.
func (idx *docIndex) buildFile(fileEl *element, fileID, repID string) (models.File, error) {
	file := models.File{
		ID:               fileID,
		RepresentationID: repID,
		OriginalName:     fileID,
	}

	if loc := fileEl.firstChild(nsMETS, "FLocat"); loc != nil {
		file.Path = strings.TrimPrefix(loc.attrNS(nsXLink, "href"), "file://")
	}

	for _, admID := range strings.Fields(fileEl.attr("ADMID")) {
		amdSec, ok := idx.amdSecs[admID]
		if !ok {
			return models.File{}, &apperr.ReferenceError{
				ID:      admID,
				Context: fmt.Sprintf("file %s ADMID", fileID),
			}
		}
		ti, err := parseTechMD(amdSec, fileID)
		if err != nil {
			return models.File{}, err
		}
		if ti.originalName != "" {
			file.OriginalName = ti.originalName
		}
		if ti.mimeType != "" && file.MIMEType == "" {
			file.MIMEType = ti.mimeType
		}
		if ti.size != nil && file.Size == nil {
			file.Size = ti.size
		}
		for _, fx := range ti.fixities {
			fx.FileID = fileID
			file.Fixities = append(file.Fixities, fx)
		}
	}

	return file, nil
}

// sipID returns the package identifier from the root OBJID attribute,
// falling back to the source file's stem.
func sipID(root *element, path string) string {
	if id := root.attr("OBJID"); id != "" {
		return id
	}
	base := filepath.Base(path)
	return "SIP-" + strings.TrimSuffix(base, filepath.Ext(base))
}

// submittingAgent returns the name of the CREATOR agent from the package
// header, or "Unknown".
func submittingAgent(root *element) string {
	hdr := root.firstChild(nsMETS, "metsHdr")
	if hdr == nil {
		return "Unknown"
	}
	for _, agent := range hdr.childrenNS(nsMETS, "agent") {
		if agent.attr("ROLE") != "CREATOR" {
			continue
		}
		if name := agent.firstChild(nsMETS, "name"); name != nil {
			if v := name.trimmedText(); v != "" {
				return v
			}
		}
	}
	return "Unknown"
}
