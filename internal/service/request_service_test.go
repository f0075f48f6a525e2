package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kjebali/stagehub-api/internal/dto"
	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

type requestRepoStub struct {
	requests map[string]*models.Request
	comments map[string][]models.RequestComment
	filter   models.RequestFilter
}

func newRequestRepoStub() *requestRepoStub {
	return &requestRepoStub{
		requests: make(map[string]*models.Request),
		comments: make(map[string][]models.RequestComment),
	}
}

func (r *requestRepoStub) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	copy := *request
	r.requests[request.ID] = &copy
	return nil
}

func (r *requestRepoStub) GetByID(ctx context.Context, id string) (*models.Request, error) {
	if req, ok := r.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *requestRepoStub) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	r.filter = filter
	result := make([]models.Request, 0, len(r.requests))
	for _, req := range r.requests {
		if filter.RequesterID != "" && req.RequesterID != filter.RequesterID {
			continue
		}
		if filter.TutorID != "" && req.TutorID != filter.TutorID {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *requestRepoStub) UpdateText(ctx context.Context, id, title, details string) error {
	req, ok := r.requests[id]
	if !ok || req.TutorDecision != models.DecisionPending || req.HRDecision != models.DecisionPending {
		return sql.ErrNoRows
	}
	req.Title = title
	req.Details = details
	return nil
}

func (r *requestRepoStub) RecordTutorDecision(ctx context.Context, id string, decision models.Decision) error {
	req, ok := r.requests[id]
	if !ok || req.TutorDecision != models.DecisionPending {
		return sql.ErrNoRows
	}
	req.TutorDecision = decision
	return nil
}

func (r *requestRepoStub) RecordHRDecision(ctx context.Context, id string, decision models.Decision) error {
	req, ok := r.requests[id]
	if !ok || req.TutorDecision != models.DecisionApproved || req.HRDecision != models.DecisionPending {
		return sql.ErrNoRows
	}
	req.HRDecision = decision
	return nil
}

func (r *requestRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.requests, id)
	delete(r.comments, id)
	return nil
}

func (r *requestRepoStub) AppendComment(ctx context.Context, comment *models.RequestComment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	r.comments[comment.RequestID] = append(r.comments[comment.RequestID], *comment)
	return nil
}

func (r *requestRepoStub) ListComments(ctx context.Context, requestID string) ([]models.RequestComment, error) {
	return r.comments[requestID], nil
}

type internResolverStub struct {
	profiles map[string]*models.Intern
}

func (i *internResolverStub) GetByUserID(ctx context.Context, userID string) (*models.Intern, error) {
	if i.profiles != nil {
		if profile, ok := i.profiles[userID]; ok {
			copy := *profile
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

type notifierStub struct {
	emitted []struct {
		UserID string
		Kind   models.NotificationKind
	}
}

func (n *notifierStub) Emit(ctx context.Context, userID string, kind models.NotificationKind, payload interface{}) {
	n.emitted = append(n.emitted, struct {
		UserID string
		Kind   models.NotificationKind
	}{userID, kind})
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func claimsFor(role models.UserRole, userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}

func newRequestFixture(t *testing.T) (*RequestService, *requestRepoStub, *notifierStub, *auditStub) {
	t.Helper()
	repo := newRequestRepoStub()
	notify := &notifierStub{}
	audit := &auditStub{}
	interns := &internResolverStub{profiles: map[string]*models.Intern{
		"intern-1": {ID: "profile-1", UserID: "intern-1", TutorID: "tutor-1", Department: "engineering"},
	}}
	svc := NewRequestService(repo, interns, notify, audit, nil)
	return svc, repo, notify, audit
}

func submitLeave(t *testing.T, svc *RequestService) *models.Request {
	t.Helper()
	created, err := svc.Submit(context.Background(), dto.CreateRequestPayload{
		Type:      models.RequestTypeLeave,
		Title:     "Family leave",
		Details:   "Two days off",
		StartDate: "2026-09-07",
		EndDate:   "2026-09-08",
	}, claimsFor(models.RoleIntern, "intern-1"))
	require.NoError(t, err)
	return created
}

func TestRequestSubmitDefaultsToPending(t *testing.T) {
	svc, _, notify, audit := newRequestFixture(t)

	created := submitLeave(t, svc)

	require.Equal(t, models.DecisionPending, created.TutorDecision)
	require.Equal(t, models.DecisionPending, created.HRDecision)
	require.Equal(t, models.StatusPending, created.OverallStatus)
	require.Equal(t, "tutor-1", created.TutorID)
	require.Len(t, notify.emitted, 1)
	require.Equal(t, models.NotificationRequestSubmitted, notify.emitted[0].Kind)
	require.Equal(t, "tutor-1", notify.emitted[0].UserID)
	require.Len(t, audit.logs, 1)
}

func TestRequestSubmitValidation(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)

	_, err := svc.Submit(context.Background(), dto.CreateRequestPayload{
		Type:  models.RequestType("VACATION"),
		Title: "  ",
	}, claimsFor(models.RoleIntern, "intern-1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Contains(t, appErr.Message, "type")
	require.Contains(t, appErr.Message, "title")
	require.Contains(t, appErr.Message, "details")
}

func TestRequestSubmitRequiresDateRange(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)

	_, err := svc.Submit(context.Background(), dto.CreateRequestPayload{
		Type:    models.RequestTypeLeave,
		Title:   "Leave",
		Details: "No dates",
	}, claimsFor(models.RoleIntern, "intern-1"))
	require.Error(t, err)
	require.Contains(t, appErrors.FromError(err).Message, "start_date/end_date")

	// Certificates carry no date range.
	_, err = svc.Submit(context.Background(), dto.CreateRequestPayload{
		Type:    models.RequestTypeCertificate,
		Title:   "Internship certificate",
		Details: "For my school file",
	}, claimsFor(models.RoleIntern, "intern-1"))
	require.NoError(t, err)
}

func TestRequestSubmitWithoutTutor(t *testing.T) {
	repo := newRequestRepoStub()
	svc := NewRequestService(repo, &internResolverStub{}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), dto.CreateRequestPayload{
		Type:    models.RequestTypeCertificate,
		Title:   "Certificate",
		Details: "Please",
	}, claimsFor(models.RoleIntern, "orphan"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTutorDecisionHappyPath(t *testing.T) {
	svc, _, notify, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	updated, err := svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{
		Decision: models.DecisionApproved,
		Comment:  "Fine by me",
	}, claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)
	require.Equal(t, models.DecisionApproved, updated.TutorDecision)
	require.Equal(t, models.StatusInReview, updated.OverallStatus)
	require.Len(t, updated.Comments, 1)
	require.Equal(t, "Fine by me", updated.Comments[0].Text)

	last := notify.emitted[len(notify.emitted)-1]
	require.Equal(t, models.NotificationTutorDecision, last.Kind)
	require.Equal(t, "intern-1", last.UserID)
}

func TestTutorDecisionRejectedByWrongTutor(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	_, err := svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{
		Decision: models.DecisionApproved,
	}, claimsFor(models.RoleTutor, "tutor-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTutorDecisionCannotBeRecordedTwice(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)
	tutor := claimsFor(models.RoleTutor, "tutor-1")

	_, err := svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionApproved}, tutor)
	require.NoError(t, err)

	_, err = svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionRejected}, tutor)
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrInvalidTransition))

	// The first decision stands.
	got, err := svc.Get(context.Background(), created.ID, tutor)
	require.NoError(t, err)
	require.Equal(t, models.DecisionApproved, got.TutorDecision)
}

func TestTutorDecisionRejectsPendingValue(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	_, err := svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{
		Decision: models.DecisionPending,
	}, claimsFor(models.RoleTutor, "tutor-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestHRDecisionRequiresTutorApproval(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)
	hr := claimsFor(models.RoleHR, "hr-1")

	_, err := svc.RecordHRDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionApproved}, hr)
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
}

func TestHRDecisionAfterTutorRejectionIsInvalid(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	_, err := svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionRejected}, claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)

	_, err = svc.RecordHRDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionApproved}, claimsFor(models.RoleHR, "hr-1"))
	require.Error(t, err)
	require.True(t, errors.Is(err, appErrors.ErrInvalidTransition))
}

func TestFullApprovalFlow(t *testing.T) {
	svc, _, notify, _ := newRequestFixture(t)
	created := submitLeave(t, svc)
	require.Equal(t, models.StatusPending, created.OverallStatus)

	afterTutor, err := svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionApproved}, claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)
	require.Equal(t, models.StatusInReview, afterTutor.OverallStatus)

	afterHR, err := svc.RecordHRDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionApproved}, claimsFor(models.RoleHR, "hr-1"))
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, afterHR.OverallStatus)

	last := notify.emitted[len(notify.emitted)-1]
	require.Equal(t, models.NotificationHRDecision, last.Kind)
	require.Equal(t, "intern-1", last.UserID)
}

func TestHRRejectionYieldsRejectedStatus(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	_, err := svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionApproved}, claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)

	afterHR, err := svc.RecordHRDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionRejected}, claimsFor(models.RoleHR, "hr-1"))
	require.NoError(t, err)
	require.Equal(t, models.StatusRejected, afterHR.OverallStatus)
	require.Equal(t, models.DecisionApproved, afterHR.TutorDecision)
	require.Equal(t, models.DecisionRejected, afterHR.HRDecision)
}

func TestDecisionOnMissingRequest(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)

	_, err := svc.RecordTutorDecision(context.Background(), "nope", dto.DecisionPayload{Decision: models.DecisionApproved}, claimsFor(models.RoleTutor, "tutor-1"))
	require.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUpdateOnlyWhileFullyPending(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)
	intern := claimsFor(models.RoleIntern, "intern-1")

	updated, err := svc.Update(context.Background(), created.ID, dto.UpdateRequestPayload{
		Title:   "Family leave (updated)",
		Details: "Three days off",
	}, intern)
	require.NoError(t, err)
	require.Equal(t, "Family leave (updated)", updated.Title)

	_, err = svc.RecordTutorDecision(context.Background(), created.ID, dto.DecisionPayload{Decision: models.DecisionApproved}, claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), created.ID, dto.UpdateRequestPayload{
		Title:   "Too late",
		Details: "Changed my mind",
	}, intern)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestUpdateRequiresRequester(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	_, err := svc.Update(context.Background(), created.ID, dto.UpdateRequestPayload{
		Title:   "Hijack",
		Details: "Not mine",
	}, claimsFor(models.RoleIntern, "intern-2"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListScopesByRole(t *testing.T) {
	svc, repo, _, _ := newRequestFixture(t)
	submitLeave(t, svc)

	_, err := svc.List(context.Background(), dto.RequestQuery{}, claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)
	require.Equal(t, "tutor-1", repo.filter.TutorID)

	_, err = svc.List(context.Background(), dto.RequestQuery{TutorID: "someone-else"}, claimsFor(models.RoleIntern, "intern-1"))
	require.NoError(t, err)
	require.Equal(t, "intern-1", repo.filter.RequesterID)

	_, err = svc.List(context.Background(), dto.RequestQuery{}, claimsFor(models.RoleHR, "hr-1"))
	require.NoError(t, err)
	require.Empty(t, repo.filter.RequesterID)
}

func TestGetEnforcesReadScope(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	_, err := svc.Get(context.Background(), created.ID, claimsFor(models.RoleIntern, "intern-2"))
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Get(context.Background(), created.ID, claimsFor(models.RoleTutor, "tutor-2"))
	require.True(t, errors.Is(err, appErrors.ErrForbidden))

	got, err := svc.Get(context.Background(), created.ID, claimsFor(models.RoleHR, "hr-1"))
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestDeleteIsAdminOnly(t *testing.T) {
	svc, repo, _, audit := newRequestFixture(t)
	created := submitLeave(t, svc)

	err := svc.Delete(context.Background(), created.ID, claimsFor(models.RoleHR, "hr-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), created.ID, claimsFor(models.RoleAdmin, "admin-1"))
	require.NoError(t, err)
	require.Empty(t, repo.requests)
	require.Equal(t, models.AuditActionRequestDelete, audit.logs[len(audit.logs)-1].Action)
}

func TestAddComment(t *testing.T) {
	svc, _, _, _ := newRequestFixture(t)
	created := submitLeave(t, svc)

	got, err := svc.AddComment(context.Background(), created.ID, dto.CommentPayload{Text: "When do you need an answer?"}, claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)
	require.Len(t, got.Comments, 1)
	require.Equal(t, models.RoleTutor, got.Comments[0].AuthorRole)

	_, err = svc.AddComment(context.Background(), created.ID, dto.CommentPayload{Text: "   "}, claimsFor(models.RoleTutor, "tutor-1"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
