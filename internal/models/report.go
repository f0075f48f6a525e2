package models

import "time"

// RequestSummary aggregates request counts for a month/department slice.
type RequestSummary struct {
	Month      string         `json:"month,omitempty"`
	Department string         `json:"department,omitempty"`
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByType     map[string]int `json:"by_type"`
}

// RequestCountRow is one aggregation bucket from the requests table.
type RequestCountRow struct {
	Type          RequestType `db:"type"`
	TutorDecision Decision    `db:"tutor_decision"`
	HRDecision    Decision    `db:"hr_decision"`
	Count         int         `db:"count"`
}

// ReportFormat enumerates supported export encodings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ReportStatus tracks the lifecycle of an export job.
type ReportStatus string

const (
	ReportStatusQueued    ReportStatus = "QUEUED"
	ReportStatusRunning   ReportStatus = "RUNNING"
	ReportStatusCompleted ReportStatus = "COMPLETED"
	ReportStatusFailed    ReportStatus = "FAILED"
)

// ReportJob is a queued request-summary export.
type ReportJob struct {
	ID          string       `db:"id" json:"id"`
	Format      ReportFormat `db:"format" json:"format"`
	Month       string       `db:"month" json:"month"`
	Department  string       `db:"department" json:"department"`
	Status      ReportStatus `db:"status" json:"status"`
	FilePath    string       `db:"file_path" json:"-"`
	Error       *string      `db:"error" json:"error,omitempty"`
	RequestedBy string       `db:"requested_by" json:"requested_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	FinishedAt  *time.Time   `db:"finished_at" json:"finished_at,omitempty"`
}
