// Package storage defines the file-system abstraction over the ingest
// root: the directory holding METS documents and the package content they
// reference.
package storage

import "io"

// DocMeta is lightweight metadata for one METS document under the root.
type DocMeta struct {
	Path     string `json:"path"`     // relative to the root
	Checksum string `json:"checksum"` // SHA-256 of the document bytes
}

// Provider is the interface for ingest-root file operations. All paths are
// relative to the root; implementations must reject paths escaping it.
type Provider interface {
	// List returns metadata for every .xml document under dir.
	List(dir string) ([]DocMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Open returns a streaming reader for the file at path. The caller
	// closes it.
	Open(path string) (io.ReadCloser, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Abs returns the absolute path for a relative one, after the same
	// traversal checks as the other operations.
	Abs(path string) (string, error)
}
