package api

import (
	"github.com/thalvik/arkiv/internal/fixity"
	"github.com/thalvik/arkiv/internal/reports"
	"github.com/thalvik/arkiv/internal/storage"
)

// TriggerRunRequest is the request body for starting a run manually.
type TriggerRunRequest struct {
	Paths []string `json:"paths" example:"sip-001/mets.xml" validate:"required"`
}

// RunListResponse wraps paginated run listings.
type RunListResponse struct {
	Runs  []reports.Run `json:"runs" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// FixityReportResponse wraps the stored fixity results for one run.
type FixityReportResponse struct {
	RunID   int64           `json:"run_id" example:"7" validate:"required"`
	Results []fixity.Result `json:"results" validate:"required"`
}

// DocumentListResponse wraps the documents waiting in the ingest root.
type DocumentListResponse struct {
	Documents []storage.DocMeta `json:"documents" validate:"required"`
}

// DocumentUploadResponse is returned after a successful document upload.
type DocumentUploadResponse struct {
	Path     string `json:"path" example:"sip-001.xml" validate:"required"`
	Checksum string `json:"checksum" example:"abc123..." validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
}
