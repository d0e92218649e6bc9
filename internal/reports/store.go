package reports

import (
	"time"

	"github.com/thalvik/arkiv/internal/fixity"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline run. Fixity mismatches do not fail a run;
// they show up in MismatchCount and the stored results.
type Run struct {
	ID            int64     `json:"id"`
	RunKey        string    `json:"run_key,omitempty"`
	SIPID         string    `json:"sip_id,omitempty"`
	SourcePaths   []string  `json:"source_paths"`
	Status        string    `json:"status"`
	Error         string    `json:"error,omitempty"`
	EntityCount   int       `json:"entity_count"`
	RepCount      int       `json:"rep_count"`
	FileCount     int       `json:"file_count"`
	FixityCount   int       `json:"fixity_count"`
	MismatchCount int       `json:"mismatch_count"`
	InvalidCount  int       `json:"invalid_count"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitzero"`
}

// Summary carries the per-stage counts recorded on completion.
type Summary struct {
	SIPID       string
	EntityCount int
	RepCount    int
	FileCount   int
}

// RunStore defines the interface for run-history operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type RunStore interface {
	CreateRun(runKey string, sourcePaths []string, startedAt time.Time) (int64, error)
	CompleteRun(id int64, sum Summary, report fixity.Report, finishedAt time.Time) error
	FailRun(id int64, runErr error, finishedAt time.Time) error
	GetRun(id int64) (*Run, error)
	ListRuns(limit, offset int) ([]Run, int, error)
	FixityResults(runID int64) ([]fixity.Result, error)
	SeenRunKey(key string) (bool, error)
	Close() error
}

// Verify *DB satisfies RunStore at compile time.
var _ RunStore = (*DB)(nil)
