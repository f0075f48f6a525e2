package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjebali/stagehub-api/internal/dto"
	"github.com/kjebali/stagehub-api/internal/middleware"
	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

type requestServiceMock struct {
	submitResp *models.Request
	submitErr  error
	listResp   []models.Request
	listErr    error
	getResp    *models.Request
	getErr     error
	decideResp *models.Request
	decideErr  error
	deleteErr  error

	lastQuery      dto.RequestQuery
	lastDecision   dto.DecisionPayload
	tutorCalled    bool
	hrCalled       bool
	deletedID      string
	submittedActor *models.JWTClaims
}

func (m *requestServiceMock) Submit(ctx context.Context, req dto.CreateRequestPayload, actor *models.JWTClaims) (*models.Request, error) {
	m.submittedActor = actor
	return m.submitResp, m.submitErr
}

func (m *requestServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Request, error) {
	return m.getResp, m.getErr
}

func (m *requestServiceMock) List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.Request, error) {
	m.lastQuery = query
	return m.listResp, m.listErr
}

func (m *requestServiceMock) Update(ctx context.Context, id string, req dto.UpdateRequestPayload, actor *models.JWTClaims) (*models.Request, error) {
	return m.getResp, m.getErr
}

func (m *requestServiceMock) RecordTutorDecision(ctx context.Context, id string, req dto.DecisionPayload, actor *models.JWTClaims) (*models.Request, error) {
	m.tutorCalled = true
	m.lastDecision = req
	return m.decideResp, m.decideErr
}

func (m *requestServiceMock) RecordHRDecision(ctx context.Context, id string, req dto.DecisionPayload, actor *models.JWTClaims) (*models.Request, error) {
	m.hrCalled = true
	m.lastDecision = req
	return m.decideResp, m.decideErr
}

func (m *requestServiceMock) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *requestServiceMock) AddComment(ctx context.Context, id string, req dto.CommentPayload, actor *models.JWTClaims) (*models.Request, error) {
	return m.getResp, m.getErr
}

func testContext(t *testing.T, method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestRequestHandlerCreate(t *testing.T) {
	mockSvc := &requestServiceMock{
		submitResp: &models.Request{ID: "r-1", OverallStatus: models.StatusPending},
	}
	handler := NewRequestHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateRequestPayload{
		Type:    models.RequestTypeCertificate,
		Title:   "Certificate",
		Details: "For school",
	})
	c, w := testContext(t, http.MethodPost, "/requests", payload, &models.JWTClaims{UserID: "intern-1", Role: models.RoleIntern})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mockSvc.submittedActor)
	assert.Equal(t, "intern-1", mockSvc.submittedActor.UserID)
}

func TestRequestHandlerCreateInvalidBody(t *testing.T) {
	handler := NewRequestHandler(&requestServiceMock{})

	c, w := testContext(t, http.MethodPost, "/requests", []byte(`{"type":`), &models.JWTClaims{UserID: "intern-1", Role: models.RoleIntern})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerListParsesFilters(t *testing.T) {
	mockSvc := &requestServiceMock{listResp: []models.Request{{ID: "r-1"}}}
	handler := NewRequestHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/requests?status=in_review&type=leave&limit=5", nil, &models.JWTClaims{UserID: "hr-1", Role: models.RoleHR})

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusInReview, mockSvc.lastQuery.Status)
	assert.Equal(t, models.RequestTypeLeave, mockSvc.lastQuery.Type)
	assert.Equal(t, 5, mockSvc.lastQuery.Limit)
}

func TestRequestHandlerTutorDecision(t *testing.T) {
	mockSvc := &requestServiceMock{
		decideResp: &models.Request{ID: "r-1", TutorDecision: models.DecisionApproved, OverallStatus: models.StatusInReview},
	}
	handler := NewRequestHandler(mockSvc)

	payload, _ := json.Marshal(dto.DecisionPayload{Decision: models.DecisionApproved, Comment: "ok"})
	c, w := testContext(t, http.MethodPut, "/requests/r-1/tutor-decision", payload, &models.JWTClaims{UserID: "tutor-1", Role: models.RoleTutor})
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}

	handler.TutorDecision(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.tutorCalled)
	assert.Equal(t, models.DecisionApproved, mockSvc.lastDecision.Decision)
}

func TestRequestHandlerHRDecisionConflict(t *testing.T) {
	mockSvc := &requestServiceMock{decideErr: appErrors.ErrInvalidTransition}
	handler := NewRequestHandler(mockSvc)

	payload, _ := json.Marshal(dto.DecisionPayload{Decision: models.DecisionApproved})
	c, w := testContext(t, http.MethodPut, "/requests/r-1/hr-decision", payload, &models.JWTClaims{UserID: "hr-1", Role: models.RoleHR})
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}

	handler.HRDecision(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, mockSvc.hrCalled)
}

func TestRequestHandlerDelete(t *testing.T) {
	mockSvc := &requestServiceMock{}
	handler := NewRequestHandler(mockSvc)

	c, w := testContext(t, http.MethodDelete, "/requests/r-1", nil, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "r-1"}}

	handler.Delete(c)
	// c.Status alone does not flush outside a running engine.
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "r-1", mockSvc.deletedID)
}

func TestRequestHandlerDecisionRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &requestServiceMock{
		decideResp: &models.Request{ID: "r-1", TutorDecision: models.DecisionApproved, OverallStatus: models.StatusInReview},
	}
	handler := NewRequestHandler(mockSvc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "tutor-1", Role: models.RoleTutor})
	})
	router.PUT("/requests/:id/tutor-decision", handler.TutorDecision)
	router.PUT("/requests/:id/hr-decision", handler.HRDecision)

	payload, _ := json.Marshal(dto.DecisionPayload{Decision: models.DecisionApproved})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/requests/r-1/tutor-decision", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.tutorCalled)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/requests/r-1/tutor-decision", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestHandlerGetNotFound(t *testing.T) {
	mockSvc := &requestServiceMock{getErr: appErrors.ErrNotFound}
	handler := NewRequestHandler(mockSvc)

	c, w := testContext(t, http.MethodGet, "/requests/missing", nil, &models.JWTClaims{UserID: "hr-1", Role: models.RoleHR})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
