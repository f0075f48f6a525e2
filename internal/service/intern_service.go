package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

type internRepository interface {
	List(ctx context.Context, filter models.InternFilter) ([]models.Intern, int, error)
	GetByID(ctx context.Context, id string) (*models.Intern, error)
	GetByUserID(ctx context.Context, userID string) (*models.Intern, error)
	Create(ctx context.Context, intern *models.Intern) error
	Update(ctx context.Context, intern *models.Intern) error
	Delete(ctx context.Context, id string) error
}

// CreateInternRequest holds payload for registering an intern profile.
type CreateInternRequest struct {
	UserID     string     `json:"user_id" validate:"required"`
	School     string     `json:"school" validate:"required"`
	Department string     `json:"department" validate:"required"`
	TutorID    string     `json:"tutor_id" validate:"required"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
}

// UpdateInternRequest holds payload for updating an intern profile.
type UpdateInternRequest struct {
	School     string     `json:"school" validate:"required"`
	Department string     `json:"department" validate:"required"`
	TutorID    string     `json:"tutor_id" validate:"required"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
}

// InternService handles intern profile use-cases.
type InternService struct {
	repo      internRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInternService constructs the intern service.
func NewInternService(repo internRepository, validate *validator.Validate, logger *zap.Logger) *InternService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternService{repo: repo, validator: validate, logger: logger}
}

// List returns intern profiles and pagination metadata.
func (s *InternService) List(ctx context.Context, filter models.InternFilter) ([]models.Intern, *models.Pagination, error) {
	interns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list interns")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return interns, pagination, nil
}

// Get returns an intern profile, restricted to the profile owner, the
// assigned tutor, HR and admins.
func (s *InternService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Intern, error) {
	intern, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern")
	}
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHR:
	case models.RoleTutor:
		if intern.TutorID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	case models.RoleIntern:
		if intern.UserID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	default:
		return nil, appErrors.ErrForbidden
	}
	return intern, nil
}

// Create registers a new intern profile.
func (s *InternService) Create(ctx context.Context, req CreateInternRequest) (*models.Intern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intern payload")
	}
	if _, err := s.repo.GetByUserID(ctx, req.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has an intern profile")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing profile")
	}
	intern := &models.Intern{
		UserID:     req.UserID,
		School:     req.School,
		Department: req.Department,
		TutorID:    req.TutorID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	if err := s.repo.Create(ctx, intern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create intern")
	}
	return intern, nil
}

// Update modifies an intern profile.
func (s *InternService) Update(ctx context.Context, id string, req UpdateInternRequest) (*models.Intern, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intern payload")
	}
	intern, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intern not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intern")
	}
	intern.School = req.School
	intern.Department = req.Department
	intern.TutorID = req.TutorID
	intern.StartDate = req.StartDate
	intern.EndDate = req.EndDate
	if err := s.repo.Update(ctx, intern); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update intern")
	}
	return intern, nil
}

// Delete removes an intern profile.
func (s *InternService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "intern not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete intern")
	}
	return nil
}
