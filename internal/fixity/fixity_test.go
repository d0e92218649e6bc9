package fixity

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/thalvik/arkiv/internal/apperr"
	"github.com/thalvik/arkiv/internal/models"
)

// Digest of "abc" for each supported algorithm.
const (
	md5abc    = "900150983cd24fb0d6963f7d28e17f72"
	sha256abc = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
)

type mapResolver map[string][]byte

func (m mapResolver) Open(path string) (io.ReadCloser, error) {
	data, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func fileWith(id, path string, fixities ...models.Fixity) models.File {
	return models.File{ID: id, Path: path, Fixities: fixities}
}

func TestCheckSyntax_WrongLength(t *testing.T) {
	// One character short of the 64 SHA-256 requires.
	short := strings.Repeat("a", 63)
	err := CheckSyntax(models.Fixity{Algorithm: models.SHA256, Digest: short, FileID: "f1"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCheckSyntax_NonHex(t *testing.T) {
	bad := strings.Repeat("a", 31) + "z"
	err := CheckSyntax(models.Fixity{Algorithm: models.MD5, Digest: bad, FileID: "f1"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestCheckSyntax_UppercaseAccepted(t *testing.T) {
	err := CheckSyntax(models.Fixity{Algorithm: models.MD5, Digest: strings.ToUpper(md5abc), FileID: "f1"})
	if err != nil {
		t.Fatalf("uppercase hex should pass syntax: %v", err)
	}
}

func TestValidate_Match(t *testing.T) {
	resolver := mapResolver{"a.txt": []byte("abc")}
	files := []models.File{
		fileWith("f1", "a.txt", models.Fixity{Algorithm: models.MD5, Digest: md5abc, FileID: "f1"}),
	}

	report := Validate(files, resolver)
	if len(report.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(report.Results))
	}
	res := report.Results[0]
	if res.Status != StatusOK {
		t.Errorf("status = %s, detail = %s", res.Status, res.Detail)
	}
	if res.Computed != md5abc {
		t.Errorf("computed = %q", res.Computed)
	}
	if !report.OK() {
		t.Error("report.OK() = false")
	}
}

func TestValidate_CaseInsensitiveCompare(t *testing.T) {
	resolver := mapResolver{"a.txt": []byte("abc")}
	files := []models.File{
		fileWith("f1", "a.txt", models.Fixity{Algorithm: models.MD5, Digest: strings.ToUpper(md5abc), FileID: "f1"}),
	}

	report := Validate(files, resolver)
	if report.Results[0].Status != StatusOK {
		t.Errorf("status = %s, want ok", report.Results[0].Status)
	}
}

func TestValidate_MismatchIsIsolated(t *testing.T) {
	// One character off; the sibling file must still pass.
	wrong := "8" + md5abc[1:]
	resolver := mapResolver{"a.txt": []byte("abc"), "b.txt": []byte("abc")}
	files := []models.File{
		fileWith("f1", "a.txt", models.Fixity{Algorithm: models.MD5, Digest: wrong, FileID: "f1"}),
		fileWith("f2", "b.txt", models.Fixity{Algorithm: models.MD5, Digest: md5abc, FileID: "f2"}),
	}

	report := Validate(files, resolver)
	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	if report.Results[0].Status != StatusMismatch {
		t.Errorf("first status = %s, want mismatch", report.Results[0].Status)
	}
	if report.Results[1].Status != StatusOK {
		t.Errorf("second status = %s, want ok", report.Results[1].Status)
	}
	if report.OK() {
		t.Error("report.OK() = true with a mismatch present")
	}
	if len(report.Mismatches()) != 1 {
		t.Errorf("mismatches = %d, want 1", len(report.Mismatches()))
	}
}

func TestValidate_InvalidDigestSkipsContent(t *testing.T) {
	resolver := mapResolver{"a.txt": []byte("abc")}
	files := []models.File{
		fileWith("f1", "a.txt", models.Fixity{Algorithm: models.SHA256, Digest: strings.Repeat("a", 63), FileID: "f1"}),
	}

	report := Validate(files, resolver)
	res := report.Results[0]
	if res.Status != StatusInvalid {
		t.Fatalf("status = %s, want invalid", res.Status)
	}
	if res.Computed != "" {
		t.Error("invalid digest must not trigger content hashing")
	}
	if len(report.Invalid()) != 1 {
		t.Errorf("invalid = %d, want 1", len(report.Invalid()))
	}
}

func TestValidate_NilResolverSkips(t *testing.T) {
	files := []models.File{
		fileWith("f1", "a.txt", models.Fixity{Algorithm: models.SHA256, Digest: sha256abc, FileID: "f1"}),
	}

	report := Validate(files, nil)
	if report.Results[0].Status != StatusSkipped {
		t.Errorf("status = %s, want skipped", report.Results[0].Status)
	}
	if !report.OK() {
		t.Error("skipped assertions must not fail the report")
	}
}

func TestValidate_UnreadableContentSkips(t *testing.T) {
	resolver := mapResolver{}
	files := []models.File{
		fileWith("f1", "missing.txt", models.Fixity{Algorithm: models.MD5, Digest: md5abc, FileID: "f1"}),
	}

	report := Validate(files, resolver)
	res := report.Results[0]
	if res.Status != StatusSkipped {
		t.Fatalf("status = %s, want skipped", res.Status)
	}
	if !strings.Contains(res.Detail, "content unreadable") {
		t.Errorf("detail = %q", res.Detail)
	}
}

func TestValidate_MultipleAssertionsPerFile(t *testing.T) {
	resolver := mapResolver{"a.txt": []byte("abc")}
	files := []models.File{
		fileWith("f1", "a.txt",
			models.Fixity{Algorithm: models.MD5, Digest: md5abc, FileID: "f1"},
			models.Fixity{Algorithm: models.SHA256, Digest: sha256abc, FileID: "f1"},
		),
	}

	report := Validate(files, resolver)
	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	for _, res := range report.Results {
		if res.Status != StatusOK {
			t.Errorf("%s status = %s, detail = %s", res.Algorithm, res.Status, res.Detail)
		}
	}
}

func TestValidate_EmptyFilesYieldEmptyReport(t *testing.T) {
	report := Validate(nil, nil)
	if len(report.Results) != 0 {
		t.Errorf("results = %d, want 0", len(report.Results))
	}
	if !report.OK() {
		t.Error("empty report should be OK")
	}
}
