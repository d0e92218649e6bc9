package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/thalvik/arkiv/internal/apperr"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// runID extracts the numeric run ID from the URL.
func runID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// documentFault reports whether the error is the submitter's fault: a
// malformed, incomplete or inconsistent METS document rather than a server
// failure.
func documentFault(err error) bool {
	return errors.Is(err, apperr.ErrParse) ||
		errors.Is(err, apperr.ErrStructure) ||
		errors.Is(err, apperr.ErrReference) ||
		errors.Is(err, apperr.ErrValidation)
}

// ListRuns handles GET /api/runs.
//
//	@Summary		List pipeline runs with optional pagination
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int	false	"Page size"
//	@Param			offset	query		int	false	"Page offset"
//	@Success		200		{object}	RunListResponse
//	@Security		BearerAuth
//	@Router			/runs [get]
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	runs, total, err := h.svc.ListRuns(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"total": total,
	})
}

// GetRun handles GET /api/runs/{id}.
//
//	@Summary		Get a single run by ID
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		int	true	"Run ID"
//	@Success		200	{object}	reports.Run
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id} [get]
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid run id"))
		return
	}
	run, err := h.svc.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get run failed", slog.Int64("run_id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// FixityReport handles GET /api/runs/{id}/fixity.
//
//	@Summary		Get the fixity report of a run
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		int	true	"Run ID"
//	@Success		200	{object}	FixityReportResponse
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/{id}/fixity [get]
func (h *Handler) FixityReport(w http.ResponseWriter, r *http.Request) {
	id, err := runID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid run id"))
		return
	}
	results, err := h.svc.FixityReport(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("fixity report failed", slog.Int64("run_id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  id,
		"results": results,
	})
}

// TriggerRun handles POST /api/runs.
//
//	@Summary		Start a pipeline run for documents in the ingest root
//	@Tags			runs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TriggerRunRequest	true	"Documents to process"
//	@Success		201		{object}	reports.Run
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs [post]
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req struct {
		Paths []string `json:"paths"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(req.Paths) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("paths is required"))
		return
	}
	run, err := h.svc.TriggerRun(r.Context(), req.Paths)
	if err != nil {
		if documentFault(err) {
			// The run record still exists in failed state; the body
			// carries the reason.
			writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
		} else {
			slog.Error("trigger run failed", slog.Any("paths", req.Paths), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List METS documents in the ingest root
//	@Tags			documents
//	@Produce		json
//	@Success		200	{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Documents(r.Context())
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
	})
}
