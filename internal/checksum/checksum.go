// Package checksum computes hex-encoded digests for the supported fixity
// algorithms.
package checksum

import (
	"crypto/md5"  //nolint:gosec // MD5 is a declared fixity algorithm, not used for security
	"crypto/sha1" //nolint:gosec // same as above
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	"github.com/thalvik/arkiv/internal/models"
)

// New returns a fresh hash for the given algorithm.
func New(algo models.Algorithm) (hash.Hash, error) {
	switch algo {
	case models.MD5:
		return md5.New(), nil //nolint:gosec
	case models.SHA1:
		return sha1.New(), nil //nolint:gosec
	case models.SHA256:
		return sha256.New(), nil
	case models.SHA512:
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("checksum: unsupported algorithm %q", algo)
}

// Sum returns the hex-encoded digest of data.
func Sum(algo models.Algorithm, data []byte) (string, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumReader streams r through the given algorithm and returns the
// hex-encoded digest.
func SumReader(algo models.Algorithm, r io.Reader) (string, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("checksum: read content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumSHA256 returns the hex-encoded SHA-256 digest of data. Used for
// change detection on inbox documents, independent of declared fixities.
func SumSHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
