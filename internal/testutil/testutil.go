// Package testutil provides shared test helpers for setting up ingest
// roots, report databases and sample METS documents.
package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/storage"
)

// TestDB creates a temporary report database that is automatically cleaned up.
func TestDB(t *testing.T) *reports.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "arkiv-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := reports.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestInbox creates a temporary ingest root with a storage.Provider.
func TestInbox(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// METSDoc builds a minimal valid METS document for tests. Each entry in
// files becomes one mets:file with a PREMIS amdSec; the fixity digest may
// be empty to omit the block.
type METSDoc struct {
	ObjID string
	Agent string
	DC    string // raw dc:* elements for the ie-dmd section
	Files []METSFile
	Use   string // fileGrp USE, defaults to "preservation"
}

// METSFile describes one file entry in a METSDoc.
type METSFile struct {
	ID        string
	Href      string
	Algorithm string
	Digest    string
}

// Render produces the METS XML for the document.
func (d METSDoc) Render() []byte {
	use := d.Use
	if use == "" {
		use = "preservation"
	}
	dc := d.DC
	if dc == "" {
		dc = "<dc:identifier>IE-001</dc:identifier><dc:title>Test entity</dc:title>"
	}

	var amd, files, fptrs strings.Builder
	for _, f := range d.Files {
		fixity := ""
		if f.Digest != "" {
			fixity = fmt.Sprintf(`<premis:fixity>
        <premis:messageDigestAlgorithm>%s</premis:messageDigestAlgorithm>
        <premis:messageDigest>%s</premis:messageDigest>
      </premis:fixity>`, f.Algorithm, f.Digest)
		}
		fmt.Fprintf(&amd, `<mets:amdSec ID="%s-amd"><mets:techMD ID="%s-tech"><mets:mdWrap MDTYPE="PREMIS"><mets:xmlData>
    <premis:object>
      <premis:originalName>%s</premis:originalName>
      <premis:objectCharacteristics>%s</premis:objectCharacteristics>
    </premis:object>
  </mets:xmlData></mets:mdWrap></mets:techMD></mets:amdSec>
`, f.ID, f.ID, f.Href, fixity)
		fmt.Fprintf(&files, `<mets:file ID="%s" ADMID="%s-amd"><mets:FLocat xlink:href="%s"/></mets:file>
`, f.ID, f.ID, f.Href)
		fmt.Fprintf(&fptrs, `<mets:fptr FILEID="%s"/>
`, f.ID)
	}

	agent := ""
	if d.Agent != "" {
		agent = fmt.Sprintf(`<mets:metsHdr><mets:agent ROLE="CREATOR"><mets:name>%s</mets:name></mets:agent></mets:metsHdr>`, d.Agent)
	}

	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<mets:mets xmlns:mets="http://www.loc.gov/METS/"
           xmlns:dc="http://purl.org/dc/elements/1.1/"
           xmlns:premis="http://www.loc.gov/premis/v3"
           xmlns:xlink="http://www.w3.org/1999/xlink"
           OBJID="%s">
  %s
  <mets:dmdSec ID="ie-dmd"><mets:mdWrap MDTYPE="DC"><mets:xmlData>%s</mets:xmlData></mets:mdWrap></mets:dmdSec>
  %s
  <mets:fileSec><mets:fileGrp USE="%s">%s</mets:fileGrp></mets:fileSec>
  <mets:structMap><mets:div LABEL="root">%s</mets:div></mets:structMap>
</mets:mets>`, d.ObjID, agent, dc, amd.String(), use, files.String(), fptrs.String())

	return []byte(doc)
}

// WriteDoc renders the document into the ingest root and returns the
// relative path.
func WriteDoc(t *testing.T, store storage.Provider, path string, d METSDoc) string {
	t.Helper()
	if err := store.Write(path, d.Render()); err != nil {
		t.Fatal(err)
	}
	return path
}
