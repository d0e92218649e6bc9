package api

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thalvik/arkiv/internal/checksum"
	"github.com/thalvik/arkiv/internal/fixity"
	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/runner"
	"github.com/thalvik/arkiv/internal/storage"
)

// Service coordinates the ingest root, the runner and the report store for
// the API layer.
type Service struct {
	runner *runner.Runner
	db     reports.RunStore
	store  storage.Provider
}

// NewService creates a new API service.
func NewService(run *runner.Runner, db reports.RunStore, store storage.Provider) *Service {
	return &Service{runner: run, db: db, store: store}
}

// TriggerRun starts a pipeline run for the given documents (paths relative
// to the ingest root). Manual runs carry no run key, so re-triggering the
// same document is always allowed.
func (s *Service) TriggerRun(ctx context.Context, paths []string) (*reports.Run, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one document path is required")
	}
	return s.runner.Run(ctx, paths, "")
}

// ListRuns returns recorded runs newest-first plus the total count.
func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]reports.Run, int, error) {
	return s.db.ListRuns(limit, offset)
}

// GetRun returns one run by ID, or apperr.ErrNotFound.
func (s *Service) GetRun(ctx context.Context, id int64) (*reports.Run, error) {
	return s.db.GetRun(id)
}

// FixityReport returns the stored fixity results for a run, in report
// order. The run must exist.
func (s *Service) FixityReport(ctx context.Context, id int64) ([]fixity.Result, error) {
	if _, err := s.db.GetRun(id); err != nil {
		return nil, err
	}
	return s.db.FixityResults(id)
}

// Documents lists the METS documents currently in the ingest root.
func (s *Service) Documents(ctx context.Context) ([]storage.DocMeta, error) {
	return s.store.List("")
}

// UploadDocument writes an uploaded METS document into the ingest root.
// The watcher picks it up from there, so the upload itself does not start
// a run. Only plain *.xml file names are accepted.
func (s *Service) UploadDocument(name string, content []byte) (storage.DocMeta, error) {
	if name == "" {
		return storage.DocMeta{}, fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return storage.DocMeta{}, fmt.Errorf("invalid filename: %s", name)
	}
	if !strings.HasSuffix(cleaned, ".xml") {
		return storage.DocMeta{}, fmt.Errorf("only .xml documents are accepted")
	}
	if err := s.store.Write(cleaned, content); err != nil {
		return storage.DocMeta{}, err
	}
	return storage.DocMeta{Path: cleaned, Checksum: checksum.SumSHA256(content)}, nil
}
