package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kjebali/stagehub-api/internal/models"
)

const internColumns = `id, user_id, school, department, tutor_id, start_date, end_date, created_at, updated_at`

// InternRepository provides database access for intern profiles.
type InternRepository struct {
	db *sqlx.DB
}

// NewInternRepository creates a new instance of InternRepository.
func NewInternRepository(db *sqlx.DB) *InternRepository {
	return &InternRepository{db: db}
}

// GetByID returns an intern profile by identifier.
func (r *InternRepository) GetByID(ctx context.Context, id string) (*models.Intern, error) {
	query := fmt.Sprintf(`SELECT %s FROM interns WHERE id = $1 LIMIT 1`, internColumns)
	var intern models.Intern
	if err := r.db.GetContext(ctx, &intern, query, id); err != nil {
		return nil, err
	}
	return &intern, nil
}

// GetByUserID returns the intern profile bound to a user account.
func (r *InternRepository) GetByUserID(ctx context.Context, userID string) (*models.Intern, error) {
	query := fmt.Sprintf(`SELECT %s FROM interns WHERE user_id = $1 LIMIT 1`, internColumns)
	var intern models.Intern
	if err := r.db.GetContext(ctx, &intern, query, userID); err != nil {
		return nil, err
	}
	return &intern, nil
}

// List returns intern profiles based on filters with total count.
func (r *InternRepository) List(ctx context.Context, filter models.InternFilter) ([]models.Intern, int, error) {
	baseQuery := `FROM interns WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(school) LIKE $%d OR LOWER(department) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", internColumns, baseQuery, pageSize, offset)
	var interns []models.Intern
	if err := r.db.SelectContext(ctx, &interns, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list interns: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count interns: %w", err)
	}

	return interns, total, nil
}

// Create inserts a new intern profile.
func (r *InternRepository) Create(ctx context.Context, intern *models.Intern) error {
	if intern.ID == "" {
		intern.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if intern.CreatedAt.IsZero() {
		intern.CreatedAt = now
	}
	intern.UpdatedAt = now
	const query = `INSERT INTO interns (id, user_id, school, department, tutor_id, start_date, end_date, created_at, updated_at)
	VALUES (:id, :user_id, :school, :department, :tutor_id, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, intern); err != nil {
		return fmt.Errorf("create intern: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of an intern profile.
func (r *InternRepository) Update(ctx context.Context, intern *models.Intern) error {
	intern.UpdatedAt = time.Now().UTC()
	const query = `UPDATE interns SET school = :school, department = :department, tutor_id = :tutor_id,
	start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, intern)
	if err != nil {
		return fmt.Errorf("update intern: %w", err)
	}
	return checkAffected(result)
}

// Delete removes an intern profile.
func (r *InternRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM interns WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete intern: %w", err)
	}
	return checkAffected(result)
}

// Count returns the total number of intern profiles.
func (r *InternRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM interns"); err != nil {
		return 0, fmt.Errorf("count interns: %w", err)
	}
	return total, nil
}
