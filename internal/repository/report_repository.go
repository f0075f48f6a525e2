package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kjebali/stagehub-api/internal/models"
)

// ReportRepository persists export job state.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a queued export job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_jobs (id, format, month, department, status, file_path, error, requested_by, created_at, finished_at)
	VALUES (:id, :format, :month, :department, :status, :file_path, :error, :requested_by, :created_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID fetches an export job.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `SELECT id, format, month, department, status, file_path, error, requested_by, created_at, finished_at
	FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus transitions a job and records the outcome.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, filePath string, jobErr *string, finishedAt *time.Time) error {
	const query = `UPDATE report_jobs SET status = $2, file_path = $3, error = $4, finished_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, filePath, jobErr, finishedAt)
	if err != nil {
		return fmt.Errorf("update report job: %w", err)
	}
	return checkAffected(result)
}
