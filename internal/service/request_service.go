package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kjebali/stagehub-api/internal/dto"
	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

type requestStore interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id string) (*models.Request, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
	UpdateText(ctx context.Context, id, title, details string) error
	RecordTutorDecision(ctx context.Context, id string, decision models.Decision) error
	RecordHRDecision(ctx context.Context, id string, decision models.Decision) error
	Delete(ctx context.Context, id string) error
	AppendComment(ctx context.Context, comment *models.RequestComment) error
	ListComments(ctx context.Context, requestID string) ([]models.RequestComment, error)
}

type tutorResolver interface {
	GetByUserID(ctx context.Context, userID string) (*models.Intern, error)
}

type notifier interface {
	Emit(ctx context.Context, userID string, kind models.NotificationKind, payload interface{})
}

type requestAuditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RequestService orchestrates the request lifecycle: submission, the two
// sequential review stages, comments and administrative removal.
type RequestService struct {
	repo    requestStore
	interns tutorResolver
	notify  notifier
	audit   requestAuditLogger
	logger  *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(repo requestStore, interns tutorResolver, notify notifier, audit requestAuditLogger, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{repo: repo, interns: interns, notify: notify, audit: audit, logger: logger}
}

// Submit validates and stores a new request with both decisions pending.
// The assigned tutor comes from the payload or, failing that, the intern
// profile of the requester.
func (s *RequestService) Submit(ctx context.Context, req dto.CreateRequestPayload, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	validated, err := validateCreatePayload(req)
	if err != nil {
		return nil, err
	}

	tutorID := strings.TrimSpace(req.TutorID)
	if tutorID == "" && s.interns != nil {
		profile, err := s.interns.GetByUserID(ctx, actor.UserID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve intern profile")
			}
		} else {
			tutorID = profile.TutorID
		}
	}
	if tutorID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tutor_id: no tutor assigned to requester")
	}

	request := &models.Request{
		RequesterID:   actor.UserID,
		Type:          validated.Type,
		Title:         validated.Title,
		Details:       validated.Details,
		StartDate:     validated.StartDate,
		EndDate:       validated.EndDate,
		TutorID:       tutorID,
		TutorDecision: models.DecisionPending,
		HRDecision:    models.DecisionPending,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	if s.notify != nil {
		s.notify.Emit(ctx, request.TutorID, models.NotificationRequestSubmitted, map[string]string{
			"request_id": request.ID,
			"title":      request.Title,
		})
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionRequestCreate, request.ID, map[string]string{
		"type":  string(request.Type),
		"title": request.Title,
	})

	return s.decorate(request, nil)
}

// Get loads a request with comments and derived status, enforcing scope.
func (s *RequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Request, error) {
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadAccess(request, actor); err != nil {
		return nil, err
	}
	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
	}
	return s.decorate(request, comments)
}

// List returns requests visible to the actor, optionally narrowed by the
// query filters, in creation order.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		RequesterID: query.RequesterID,
		TutorID:     query.TutorID,
		Status:      query.Status,
		Type:        query.Type,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHR:
		// full visibility
	case models.RoleTutor:
		filter.TutorID = actor.UserID
	case models.RoleIntern:
		filter.RequesterID = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}

	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	for i := range requests {
		if _, err := s.decorate(&requests[i], nil); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// Update amends title/details. Only the requester may do this, and only
// while no decision has been recorded.
func (s *RequestService) Update(ctx context.Context, id string, req dto.UpdateRequestPayload, actor *models.JWTClaims) (*models.Request, error) {
	title := strings.TrimSpace(req.Title)
	details := strings.TrimSpace(req.Details)
	if title == "" || details == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title, details: must not be empty")
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil || request.RequesterID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester may edit a request")
	}
	if err := s.repo.UpdateText(ctx, id, title, details); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request is no longer editable")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	return s.Get(ctx, id, actor)
}

// RecordTutorDecision applies the first-stage decision. The store performs
// the precondition check and write atomically; a conditional miss on an
// existing row is an invalid transition, never a silent overwrite.
func (s *RequestService) RecordTutorDecision(ctx context.Context, id string, req dto.DecisionPayload, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateDecisionPayload(req); err != nil {
		return nil, err
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.TutorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "caller is not the assigned tutor")
	}

	if err := s.repo.RecordTutorDecision(ctx, id, req.Decision); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveConditionalMiss(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record tutor decision")
	}

	s.appendDecisionComment(ctx, id, actor, req.Comment)
	if s.notify != nil {
		s.notify.Emit(ctx, request.RequesterID, models.NotificationTutorDecision, map[string]string{
			"request_id": id,
			"decision":   string(req.Decision),
		})
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionTutorDecision, id, map[string]string{"decision": string(req.Decision)})

	return s.Get(ctx, id, actor)
}

// RecordHRDecision applies the second-stage decision. It requires the
// tutor stage to be approved and the HR stage to still be pending.
func (s *RequestService) RecordHRDecision(ctx context.Context, id string, req dto.DecisionPayload, actor *models.JWTClaims) (*models.Request, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateDecisionPayload(req); err != nil {
		return nil, err
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.RecordHRDecision(ctx, id, req.Decision); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.resolveConditionalMiss(ctx, id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record hr decision")
	}

	s.appendDecisionComment(ctx, id, actor, req.Comment)
	if s.notify != nil {
		s.notify.Emit(ctx, request.RequesterID, models.NotificationHRDecision, map[string]string{
			"request_id": id,
			"decision":   string(req.Decision),
		})
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionHRDecision, id, map[string]string{"decision": string(req.Decision)})

	return s.Get(ctx, id, actor)
}

// Delete removes a request entirely. Administrative only; there is no
// soft-delete.
func (s *RequestService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators may delete requests")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	s.emitAudit(ctx, actor.UserID, models.AuditActionRequestDelete, id, nil)
	return nil
}

// AddComment appends a comment to a request the actor can read.
func (s *RequestService) AddComment(ctx context.Context, id string, req dto.CommentPayload, actor *models.JWTClaims) (*models.Request, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "text: must not be empty")
	}
	request, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadAccess(request, actor); err != nil {
		return nil, err
	}
	comment := &models.RequestComment{
		RequestID:  id,
		AuthorID:   actor.UserID,
		AuthorRole: actor.Role,
		Text:       text,
	}
	if err := s.repo.AppendComment(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to append comment")
	}
	return s.Get(ctx, id, actor)
}

func (s *RequestService) load(ctx context.Context, id string) (*models.Request, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

// resolveConditionalMiss maps a zero-row conditional update to the precise
// failure: the row vanished (NotFound) or its stage precondition no longer
// holds (InvalidTransition).
func (s *RequestService) resolveConditionalMiss(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return appErrors.ErrInvalidTransition
}

// decorate computes the derived status and attaches comments. A corrupt
// decision combination is logged and surfaced, never patched up.
func (s *RequestService) decorate(request *models.Request, comments []models.RequestComment) (*models.Request, error) {
	status, err := models.DeriveStatus(request.TutorDecision, request.HRDecision)
	if err != nil {
		s.logger.Error("corrupt decision state",
			zap.String("request_id", request.ID),
			zap.String("tutor_decision", string(request.TutorDecision)),
			zap.String("hr_decision", string(request.HRDecision)),
		)
		return nil, err
	}
	request.OverallStatus = status
	if comments != nil {
		request.Comments = comments
	}
	return request, nil
}

func (s *RequestService) checkReadAccess(request *models.Request, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleHR:
		return nil
	case models.RoleTutor:
		if request.TutorID == actor.UserID {
			return nil
		}
	case models.RoleIntern:
		if request.RequesterID == actor.UserID {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

func (s *RequestService) appendDecisionComment(ctx context.Context, id string, actor *models.JWTClaims, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	comment := &models.RequestComment{
		RequestID:  id,
		AuthorID:   actor.UserID,
		AuthorRole: actor.Role,
		Text:       text,
	}
	if err := s.repo.AppendComment(ctx, comment); err != nil {
		s.logger.Warn("failed to append decision comment", zap.String("request_id", id), zap.Error(err))
	}
}

func (s *RequestService) emitAudit(ctx context.Context, userID, action, resourceID string, values map[string]string) {
	if s.audit == nil {
		return
	}
	var payload []byte
	if values != nil {
		payload, _ = json.Marshal(values)
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "request",
		ResourceID: &resourceID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
