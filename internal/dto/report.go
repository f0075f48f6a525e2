package dto

import (
	"time"

	"github.com/kjebali/stagehub-api/internal/models"
)

// SummaryQuery filters the request summary aggregation.
type SummaryQuery struct {
	Month      string `json:"month,omitempty"`
	Department string `json:"department,omitempty"`
}

// ExportRequest asks for an asynchronous summary export.
type ExportRequest struct {
	Format     models.ReportFormat `json:"format" validate:"required"`
	Month      string              `json:"month,omitempty"`
	Department string              `json:"department,omitempty"`
}

// ExportJobResponse reports the state of an export job, including a signed
// download token once the job completed.
type ExportJobResponse struct {
	ID            string              `json:"id"`
	Format        models.ReportFormat `json:"format"`
	Status        models.ReportStatus `json:"status"`
	Error         *string             `json:"error,omitempty"`
	DownloadToken string              `json:"download_token,omitempty"`
	ExpiresAt     *time.Time          `json:"expires_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}
