// Package fixity validates declared checksum assertions against their
// syntactic constraints and, when content is reachable, against recomputed
// digests.
//
// The package has batch partial-failure semantics: every assertion of every
// file is checked independently and the report is always complete. One
// assertion passing never excuses another failing, and a corrupted file is
// an operational finding, not a reason to abort its siblings.
package fixity

import (
	"fmt"
	"io"
	"strings"

	"github.com/thalvik/arkiv/internal/apperr"
	"github.com/thalvik/arkiv/internal/checksum"
	"github.com/thalvik/arkiv/internal/models"
)

// Status classifies the outcome of one assertion check.
type Status string

const (
	// StatusOK means the digest is well-formed and, if content was
	// available, matches the recomputed value.
	StatusOK Status = "ok"
	// StatusMismatch means the recomputed digest differs from the
	// declared one.
	StatusMismatch Status = "mismatch"
	// StatusInvalid means the declared digest violates the algorithm's
	// format (wrong length or non-hex characters).
	StatusInvalid Status = "invalid"
	// StatusSkipped means the digest is well-formed but no content was
	// available to verify it against.
	StatusSkipped Status = "skipped"
)

// ContentResolver opens the binary content a file's path points at,
// relative to the configured content root.
type ContentResolver interface {
	Open(path string) (io.ReadCloser, error)
}

// Result is the outcome of checking one assertion.
type Result struct {
	FileID    string           `json:"file_id"`
	Algorithm models.Algorithm `json:"algorithm"`
	Declared  string           `json:"declared"`
	Computed  string           `json:"computed,omitempty"`
	Status    Status           `json:"status"`
	Detail    string           `json:"detail,omitempty"`
}

// Report collects the results for a whole batch of files, in input order.
type Report struct {
	Results []Result `json:"results"`
}

// OK reports whether no assertion failed syntactically or semantically.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if res.Status == StatusMismatch || res.Status == StatusInvalid {
			return false
		}
	}
	return true
}

// Mismatches returns the results flagged as semantic mismatches.
func (r Report) Mismatches() []Result {
	return r.filter(StatusMismatch)
}

// Invalid returns the results flagged as syntactically invalid.
func (r Report) Invalid() []Result {
	return r.filter(StatusInvalid)
}

func (r Report) filter(s Status) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == s {
			out = append(out, res)
		}
	}
	return out
}

// CheckSyntax verifies that the declared digest has the length and
// character set the algorithm requires. It does not touch content.
func CheckSyntax(fx models.Fixity) error {
	want := fx.Algorithm.HexLength()
	if len(fx.Digest) != want {
		return &apperr.ValidationError{
			Entity: fx.FileID,
			Field:  "fixity digest",
			Value:  fx.Digest,
			Detail: fmt.Sprintf("%s digest must be %d hex characters, got %d",
				fx.Algorithm, want, len(fx.Digest)),
		}
	}
	for _, c := range fx.Digest {
		if !isHex(c) {
			return &apperr.ValidationError{
				Entity: fx.FileID,
				Field:  "fixity digest",
				Value:  fx.Digest,
				Detail: fmt.Sprintf("non-hex character %q", c),
			}
		}
	}
	return nil
}

func isHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Validate checks every assertion of every file. resolver may be nil, in
// which case all semantic checks are skipped and only digest syntax is
// verified.
func Validate(files []models.File, resolver ContentResolver) Report {
	var report Report
	for _, file := range files {
		for _, fx := range file.Fixities {
			report.Results = append(report.Results, checkOne(file, fx, resolver))
		}
	}
	return report
}

func checkOne(file models.File, fx models.Fixity, resolver ContentResolver) Result {
	res := Result{
		FileID:    file.ID,
		Algorithm: fx.Algorithm,
		Declared:  fx.Digest,
	}

	if err := CheckSyntax(fx); err != nil {
		res.Status = StatusInvalid
		res.Detail = err.Error()
		return res
	}

	if resolver == nil || file.Path == "" {
		res.Status = StatusSkipped
		res.Detail = "no content available"
		return res
	}

	rc, err := resolver.Open(file.Path)
	if err != nil {
		res.Status = StatusSkipped
		res.Detail = fmt.Sprintf("content unreadable: %v", err)
		return res
	}
	defer rc.Close()

	computed, err := checksum.SumReader(fx.Algorithm, rc)
	if err != nil {
		res.Status = StatusSkipped
		res.Detail = fmt.Sprintf("digest computation failed: %v", err)
		return res
	}
	res.Computed = computed

	if !strings.EqualFold(computed, fx.Digest) {
		res.Status = StatusMismatch
		res.Detail = (&apperr.FixityMismatchError{
			FileID:    file.ID,
			Algorithm: string(fx.Algorithm),
			Declared:  fx.Digest,
			Computed:  computed,
		}).Error()
		return res
	}

	res.Status = StatusOK
	return res
}
