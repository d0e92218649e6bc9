package mcpserver

// METSProfile describes the METS structure that submitted documents must
// follow for the pipeline to accept them.
const METSProfile = `# arkiv METS Submission Profile

Every METS document submitted to arkiv MUST follow this structure.

## Structure

` + "```" + `xml
<mets:mets xmlns:mets="http://www.loc.gov/METS/" OBJID="SIP-001">
  <mets:metsHdr>
    <mets:agent ROLE="CREATOR"><mets:name>...</mets:name></mets:agent>
  </mets:metsHdr>
  <mets:dmdSec ID="ie-dmd"> <!-- REQUIRED: descriptive metadata -->
    <mets:mdWrap><mets:xmlData>
      <dc:identifier>IE-001</dc:identifier> <!-- REQUIRED, first one is the entity ID -->
      <dc:title>...</dc:title>
    </mets:xmlData></mets:mdWrap>
  </mets:dmdSec>
  <mets:amdSec ID="ie-amd">...</mets:amdSec> <!-- OPTIONAL: PREMIS for the entity -->
  <mets:amdSec ID="f1-amd">...</mets:amdSec> <!-- PREMIS per file, referenced by ADMID -->
  <mets:fileSec> <!-- REQUIRED -->
    <mets:fileGrp USE="preservation"> <!-- USE is REQUIRED -->
      <mets:file ID="f1" ADMID="f1-amd">
        <mets:FLocat xlink:href="content/report.pdf"/>
      </mets:file>
    </mets:fileGrp>
  </mets:fileSec>
  <mets:structMap> <!-- REQUIRED: only files reachable from here count -->
    <mets:div LABEL="...">
      <mets:fptr FILEID="f1"/>
    </mets:div>
  </mets:structMap>
</mets:mets>
` + "```" + `

## Rules

1. **The root element is ` + "`" + `mets:mets` + "`" + `.** Anything else is rejected outright.
2. **A ` + "`" + `dmdSec` + "`" + ` with ID ` + "`" + `ie-dmd` + "`" + ` is required.** Its Dublin Core block
   must carry at least one ` + "`" + `dc:identifier` + "`" + `; the first one names the
   intellectual entity. Repeatable elements (creator, identifier, ...) keep
   their document order.
3. **Every ` + "`" + `fileGrp` + "`" + ` needs a ` + "`" + `USE` + "`" + ` attribute** with one of
   ` + "`" + `preservation` + "`" + `, ` + "`" + `access` + "`" + ` or ` + "`" + `original` + "`" + `. Unknown values are rejected,
   not defaulted.
4. **The ` + "`" + `structMap` + "`" + ` is authoritative.** A file listed in ` + "`" + `fileSec` + "`" + ` but
   never referenced by an ` + "`" + `fptr` + "`" + ` is ignored; an ` + "`" + `fptr` + "`" + ` whose FILEID
   resolves to nothing fails the whole document.
5. **Fixity lives in PREMIS.** Each ` + "`" + `premis:fixity` + "`" + ` block inside the
   file's ` + "`" + `amdSec` + "`" + ` declares one digest. Supported algorithms: MD5,
   SHA-1, SHA-256, SHA-512. Digests are lowercase or uppercase hex of the
   exact length the algorithm produces.
6. **File content paths** in ` + "`" + `FLocat xlink:href` + "`" + ` are relative to the
   ingest root; a ` + "`" + `file://` + "`" + ` prefix is tolerated and stripped.
7. **Errors are all-or-nothing per document.** A malformed, incomplete or
   inconsistent document yields no partial data. Fixity mismatches are the
   one exception: they are reported, never fatal.

## Example

A minimal valid submission is a single ` + "`" + `mets.xml` + "`" + ` with one entity, one
preservation fileGrp, one file with a SHA-256 fixity block, and a structMap
referencing that file.
`
