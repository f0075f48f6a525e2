package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kjebali/stagehub-api/internal/models"
)

const requestColumns = `id, requester_id, type, title, details, start_date, end_date,
       tutor_id, tutor_decision, hr_decision, created_at, updated_at`

// RequestRepository persists internship requests and their comments.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new request row with both decisions pending.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.TutorDecision == "" {
		request.TutorDecision = models.DecisionPending
	}
	if request.HRDecision == "" {
		request.HRDecision = models.DecisionPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	const query = `INSERT INTO requests
	(id, requester_id, type, title, details, start_date, end_date, tutor_id, tutor_decision, hr_decision, created_at, updated_at)
	VALUES (:id, :requester_id, :type, :title, :details, :start_date, :end_date, :tutor_id, :tutor_decision, :hr_decision, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier without its comments.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = $1`, requestColumns)
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter in creation order.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM requests", requestColumns))

	conditions := make([]string, 0, 4)
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.TutorID != "" {
		args = append(args, filter.TutorID)
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if cond := statusCondition(filter.Status); cond != "" {
		conditions = append(conditions, cond)
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at ASC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// statusCondition translates a derived overall status into predicates over
// the two stored decision columns.
func statusCondition(status models.OverallStatus) string {
	switch status {
	case models.StatusPending:
		return "(tutor_decision = 'PENDING' AND hr_decision = 'PENDING')"
	case models.StatusInReview:
		return "(tutor_decision = 'APPROVED' AND hr_decision = 'PENDING')"
	case models.StatusApproved:
		return "(tutor_decision = 'APPROVED' AND hr_decision = 'APPROVED')"
	case models.StatusRejected:
		return "(tutor_decision = 'REJECTED' OR hr_decision = 'REJECTED')"
	}
	return ""
}

// UpdateText amends title/details. The write is conditional on both
// decisions still being pending so a concurrent decision cannot be raced.
func (r *RequestRepository) UpdateText(ctx context.Context, id, title, details string) error {
	const query = `UPDATE requests SET title = $2, details = $3, updated_at = $4
	WHERE id = $1 AND tutor_decision = 'PENDING' AND hr_decision = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, title, details, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update request text: %w", err)
	}
	return checkAffected(result)
}

// RecordTutorDecision applies the tutor decision as a single conditional
// update. The precondition check and the write happen in one statement so
// two near-simultaneous submissions cannot both pass.
func (r *RequestRepository) RecordTutorDecision(ctx context.Context, id string, decision models.Decision) error {
	const query = `UPDATE requests SET tutor_decision = $2, updated_at = $3
	WHERE id = $1 AND tutor_decision = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, decision, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record tutor decision: %w", err)
	}
	return checkAffected(result)
}

// RecordHRDecision applies the HR decision conditional on the tutor stage
// having approved and the HR stage still pending.
func (r *RequestRepository) RecordHRDecision(ctx context.Context, id string, decision models.Decision) error {
	const query = `UPDATE requests SET hr_decision = $2, updated_at = $3
	WHERE id = $1 AND tutor_decision = 'APPROVED' AND hr_decision = 'PENDING'`
	result, err := r.db.ExecContext(ctx, query, id, decision, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record hr decision: %w", err)
	}
	return checkAffected(result)
}

// Delete removes a request and its comments. Administrative only.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM request_comments WHERE request_id = $1", id); err != nil {
		return fmt.Errorf("delete request comments: %w", err)
	}
	result, err := r.db.ExecContext(ctx, "DELETE FROM requests WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return checkAffected(result)
}

// AppendComment inserts a comment row. Comments are append-only.
func (r *RequestRepository) AppendComment(ctx context.Context, comment *models.RequestComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO request_comments (id, request_id, author_id, author_role, text, created_at)
	VALUES (:id, :request_id, :author_id, :author_role, :text, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("append request comment: %w", err)
	}
	return nil
}

// ListComments returns the comments of a request oldest first.
func (r *RequestRepository) ListComments(ctx context.Context, requestID string) ([]models.RequestComment, error) {
	const query = `SELECT id, request_id, author_id, author_role, text, created_at
	FROM request_comments WHERE request_id = $1 ORDER BY created_at ASC`
	var comments []models.RequestComment
	if err := r.db.SelectContext(ctx, &comments, query, requestID); err != nil {
		return nil, fmt.Errorf("list request comments: %w", err)
	}
	return comments, nil
}

// CountByDecisions returns request counts grouped by decision pair,
// optionally scoped to a month (YYYY-MM) and requester department.
func (r *RequestRepository) CountByDecisions(ctx context.Context, month, department string) ([]models.RequestCountRow, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT r.type, r.tutor_decision, r.hr_decision, COUNT(*) AS count FROM requests r`)
	conditions := make([]string, 0, 2)
	if department != "" {
		builder.WriteString(" JOIN interns i ON i.user_id = r.requester_id")
		args = append(args, department)
		conditions = append(conditions, fmt.Sprintf("i.department = $%d", len(args)))
	}
	if month != "" {
		args = append(args, month)
		conditions = append(conditions, fmt.Sprintf("TO_CHAR(r.created_at, 'YYYY-MM') = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" GROUP BY r.type, r.tutor_decision, r.hr_decision")

	var rows []models.RequestCountRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	return rows, nil
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
