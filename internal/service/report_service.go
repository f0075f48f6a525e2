package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kjebali/stagehub-api/internal/dto"
	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
	"github.com/kjebali/stagehub-api/pkg/export"
	"github.com/kjebali/stagehub-api/pkg/jobs"
	"github.com/kjebali/stagehub-api/pkg/storage"
)

type summaryRepository interface {
	CountByDecisions(ctx context.Context, month, department string) ([]models.RequestCountRow, error)
}

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, filePath string, jobErr *string, finishedAt *time.Time) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReportService aggregates request counts and drives asynchronous exports.
type ReportService struct {
	summaries summaryRepository
	store     reportJobStore
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	queue     jobEnqueuer
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService constructs a ReportService. The queue is attached later via
// AttachQueue because the queue handler needs the service itself.
func NewReportService(summaries summaryRepository, store reportJobStore, fs fileStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		summaries: summaries,
		store:     store,
		storage:   fs,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		logger:    logger,
		now:       time.Now,
	}
}

// AttachQueue wires the background queue used for export jobs.
func (s *ReportService) AttachQueue(queue jobEnqueuer) {
	s.queue = queue
}

// Summary aggregates request counts for the given slice. HR and admin only.
func (s *ReportService) Summary(ctx context.Context, actor *models.JWTClaims, query dto.SummaryQuery) (*models.RequestSummary, error) {
	if err := requireReporter(actor); err != nil {
		return nil, err
	}
	rows, err := s.summaries.CountByDecisions(ctx, query.Month, query.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate requests")
	}

	summary := &models.RequestSummary{
		Month:      query.Month,
		Department: query.Department,
		ByStatus:   make(map[string]int),
		ByType:     make(map[string]int),
	}
	for _, row := range rows {
		status, err := models.DeriveStatus(row.TutorDecision, row.HRDecision)
		if err != nil {
			s.logger.Error("inconsistent decision bucket in summary",
				zap.String("tutor_decision", string(row.TutorDecision)),
				zap.String("hr_decision", string(row.HRDecision)))
			return nil, err
		}
		summary.Total += row.Count
		summary.ByStatus[string(status)] += row.Count
		summary.ByType[string(row.Type)] += row.Count
	}
	return summary, nil
}

// Export queues an asynchronous summary export and returns the job descriptor.
func (s *ReportService) Export(ctx context.Context, actor *models.JWTClaims, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if err := requireReporter(actor); err != nil {
		return nil, err
	}
	if req.Format != models.ReportFormatCSV && req.Format != models.ReportFormatPDF {
		return nil, appErrors.Wrap(nil, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("unsupported export format %q", req.Format))
	}
	if s.queue == nil {
		return nil, appErrors.Wrap(nil, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue not running")
	}

	job := &models.ReportJob{
		Format:      req.Format,
		Month:       req.Month,
		Department:  req.Department,
		Status:      models.ReportStatusQueued,
		RequestedBy: actor.UserID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "report_export", Payload: job.ID}); err != nil {
		now := s.now().UTC()
		msg := err.Error()
		if uerr := s.store.UpdateStatus(ctx, job.ID, models.ReportStatusFailed, "", &msg, &now); uerr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(uerr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}

	return s.describe(job), nil
}

// Job returns the current state of an export job, including a signed download
// token once the file exists.
func (s *ReportService) Job(ctx context.Context, actor *models.JWTClaims, id string) (*dto.ExportJobResponse, error) {
	if err := requireReporter(actor); err != nil {
		return nil, err
	}
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export job not found")
	}
	return s.describe(job), nil
}

// Download resolves a signed token to an open file handle.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, *models.ReportJob, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export job not found")
	}
	if job.Status != models.ReportStatusCompleted || job.FilePath != relPath {
		return nil, nil, appErrors.Wrap(nil, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not available")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file missing")
	}
	return file, job, nil
}

// Process is the queue handler. It renders the export and records the outcome.
func (s *ReportService) Process(ctx context.Context, qjob jobs.Job) error {
	jobID, ok := qjob.Payload.(string)
	if !ok || jobID == "" {
		s.logger.Error("export job carried no id", zap.String("queue_job", qjob.ID))
		return nil
	}

	job, err := s.store.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", jobID, err)
	}

	now := s.now().UTC()
	if err := s.store.UpdateStatus(ctx, job.ID, models.ReportStatusRunning, "", nil, nil); err != nil {
		return fmt.Errorf("mark export job running: %w", err)
	}

	relPath, err := s.render(ctx, job)
	if err != nil {
		msg := err.Error()
		finished := s.now().UTC()
		if uerr := s.store.UpdateStatus(ctx, job.ID, models.ReportStatusFailed, "", &msg, &finished); uerr != nil {
			s.logger.Error("failed to record export failure", zap.String("job_id", job.ID), zap.Error(uerr))
		}
		return err
	}

	finished := s.now().UTC()
	if err := s.store.UpdateStatus(ctx, job.ID, models.ReportStatusCompleted, relPath, nil, &finished); err != nil {
		return fmt.Errorf("mark export job completed: %w", err)
	}
	s.logger.Info("export job completed",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.Duration("took", finished.Sub(now)))
	return nil
}

func (s *ReportService) render(ctx context.Context, job *models.ReportJob) (string, error) {
	rows, err := s.summaries.CountByDecisions(ctx, job.Month, job.Department)
	if err != nil {
		return "", fmt.Errorf("aggregate requests: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"Type", "Tutor Decision", "HR Decision", "Status", "Count"},
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Type != rows[j].Type {
			return rows[i].Type < rows[j].Type
		}
		return rows[i].Count > rows[j].Count
	})
	for _, row := range rows {
		status, derr := models.DeriveStatus(row.TutorDecision, row.HRDecision)
		if derr != nil {
			return "", derr
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Type":           string(row.Type),
			"Tutor Decision": string(row.TutorDecision),
			"HR Decision":    string(row.HRDecision),
			"Status":         string(status),
			"Count":          strconv.Itoa(row.Count),
		})
	}

	var payload []byte
	switch job.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, s.title(job))
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("requests/%s-%s.%s", s.now().UTC().Format("20060102-150405"), job.ID, job.Format)
	return s.storage.Save(filename, payload)
}

func (s *ReportService) title(job *models.ReportJob) string {
	title := "Internship requests"
	if job.Month != "" {
		title += " " + job.Month
	}
	if job.Department != "" {
		title += " - " + job.Department
	}
	return title
}

func (s *ReportService) describe(job *models.ReportJob) *dto.ExportJobResponse {
	resp := &dto.ExportJobResponse{
		ID:        job.ID,
		Format:    job.Format,
		Status:    job.Status,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
	}
	if job.Status == models.ReportStatusCompleted && job.FilePath != "" && s.signer != nil {
		token, expiresAt, err := s.signer.Generate(job.ID, job.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign download token", zap.String("job_id", job.ID), zap.Error(err))
		} else {
			resp.DownloadToken = token
			resp.ExpiresAt = &expiresAt
		}
	}
	return resp
}

func requireReporter(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin && actor.Role != models.RoleHR {
		return appErrors.Wrap(nil, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "reporting requires HR or admin role")
	}
	return nil
}
