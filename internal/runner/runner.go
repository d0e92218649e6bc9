// Package runner executes the pipeline steps sequentially for one set of
// METS documents and records the outcome in the report store.
//
// The runner is deliberately thin: scheduling, caching and retry belong to
// whatever invokes it. It calls the five pipeline steps in order, persists
// the run record plus the fixity report, and emits lifecycle events.
package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/thalvik/arkiv/internal/pipeline"
	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/storage"
)

// EventCallback is called after run state changes.
// kind is one of "started", "completed", "failed".
type EventCallback func(kind string, run *reports.Run)

// Runner wires the pipeline steps to the ingest root and report store.
type Runner struct {
	store  storage.Provider
	db     reports.RunStore
	logger *slog.Logger
	cb     EventCallback
}

// New creates a runner. cb may be nil.
func New(store storage.Provider, db reports.RunStore, logger *slog.Logger, cb EventCallback) *Runner {
	return &Runner{store: store, db: db, logger: logger, cb: cb}
}

// Run executes the pipeline for the given document paths (relative to the
// ingest root). runKey deduplicates sensor-triggered runs and may be empty
// for manual ones. The returned record reflects the stored outcome; the
// error is non-nil only when the pipeline or the store failed, never for
// fixity mismatches.
func (r *Runner) Run(ctx context.Context, relPaths []string, runKey string) (*reports.Run, error) {
	id, err := r.db.CreateRun(runKey, relPaths, time.Now())
	if err != nil {
		return nil, err
	}
	r.logger.Info("run: started",
		slog.Int64("run_id", id),
		slog.Any("paths", relPaths))
	r.emit("started", id)

	run, err := r.execute(ctx, id, relPaths)
	if err != nil {
		if dbErr := r.db.FailRun(id, err, time.Now()); dbErr != nil {
			r.logger.Error("run: record failure", slog.Int64("run_id", id), slog.String("error", dbErr.Error()))
		}
		r.logger.Error("run: failed", slog.Int64("run_id", id), slog.String("error", err.Error()))
		r.emit("failed", id)
		return nil, err
	}

	r.logger.Info("run: completed",
		slog.Int64("run_id", id),
		slog.String("sip_id", run.SIPID),
		slog.Int("files", run.FileCount),
		slog.Int("mismatches", run.MismatchCount))
	r.emit("completed", id)
	return run, nil
}

func (r *Runner) execute(ctx context.Context, id int64, relPaths []string) (*reports.Run, error) {
	absPaths := make([]string, len(relPaths))
	for i, p := range relPaths {
		abs, err := r.store.Abs(p)
		if err != nil {
			return nil, err
		}
		absPaths[i] = abs
	}

	sip, err := pipeline.ParseSIP(absPaths)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entities, err := pipeline.ExtractIEs(sip)
	if err != nil {
		return nil, err
	}
	reps, err := pipeline.ExtractRepresentations(entities)
	if err != nil {
		return nil, err
	}
	files, err := pipeline.ExtractFiles(reps)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report, err := pipeline.ExtractFixities(files, r.store)
	if err != nil {
		return nil, err
	}
	for _, res := range report.Mismatches() {
		r.logger.Warn("run: fixity mismatch",
			slog.Int64("run_id", id),
			slog.String("file_id", res.FileID),
			slog.String("algorithm", string(res.Algorithm)))
	}
	for _, res := range report.Invalid() {
		r.logger.Warn("run: invalid fixity digest",
			slog.Int64("run_id", id),
			slog.String("file_id", res.FileID),
			slog.String("detail", res.Detail))
	}

	sum := reports.Summary{
		SIPID:       sip.ID,
		EntityCount: len(entities),
		RepCount:    len(reps),
		FileCount:   len(files),
	}
	if err := r.db.CompleteRun(id, sum, report, time.Now()); err != nil {
		return nil, err
	}
	return r.db.GetRun(id)
}

func (r *Runner) emit(kind string, id int64) {
	if r.cb == nil {
		return
	}
	run, err := r.db.GetRun(id)
	if err != nil {
		return
	}
	r.cb(kind, run)
}
