package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kjebali/stagehub-api/internal/dto"
	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
	"github.com/kjebali/stagehub-api/pkg/response"
)

type requestService interface {
	Submit(ctx context.Context, req dto.CreateRequestPayload, actor *models.JWTClaims) (*models.Request, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Request, error)
	List(ctx context.Context, query dto.RequestQuery, actor *models.JWTClaims) ([]models.Request, error)
	Update(ctx context.Context, id string, req dto.UpdateRequestPayload, actor *models.JWTClaims) (*models.Request, error)
	RecordTutorDecision(ctx context.Context, id string, req dto.DecisionPayload, actor *models.JWTClaims) (*models.Request, error)
	RecordHRDecision(ctx context.Context, id string, req dto.DecisionPayload, actor *models.JWTClaims) (*models.Request, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	AddComment(ctx context.Context, id string, req dto.CommentPayload, actor *models.JWTClaims) (*models.Request, error)
}

// RequestHandler exposes REST endpoints for the request workflow.
type RequestHandler struct {
	service requestService
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(service requestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// Create godoc
// @Summary Submit a new request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestPayload true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	request, err := h.service.Submit(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// List godoc
// @Summary List requests visible to the caller
// @Tags Requests
// @Produce json
// @Param status query string false "Derived status filter"
// @Param type query string false "Request type filter"
// @Param requester_id query string false "Requester filter (HR/admin only)"
// @Param tutor_id query string false "Tutor filter (HR/admin only)"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	query := dto.RequestQuery{
		RequesterID: strings.TrimSpace(c.Query("requester_id")),
		TutorID:     strings.TrimSpace(c.Query("tutor_id")),
	}
	if raw := c.Query("status"); raw != "" {
		query.Status = models.OverallStatus(strings.ToUpper(strings.TrimSpace(raw)))
	}
	if raw := c.Query("type"); raw != "" {
		query.Type = models.RequestType(strings.ToUpper(strings.TrimSpace(raw)))
	}
	query.Limit = intQuery(c, "limit", 50)
	query.Offset = intQuery(c, "offset", 0)

	requests, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get request detail with comments
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Update godoc
// @Summary Amend title and details of a pending request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateRequestPayload true "Updated fields"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [put]
func (h *RequestHandler) Update(c *gin.Context) {
	var req dto.UpdateRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	request, err := h.service.Update(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// TutorDecision godoc
// @Summary Record the tutor-stage decision
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecisionPayload true "Decision"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/tutor-decision [put]
func (h *RequestHandler) TutorDecision(c *gin.Context) {
	var req dto.DecisionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	request, err := h.service.RecordTutorDecision(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// HRDecision godoc
// @Summary Record the HR-stage decision
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.DecisionPayload true "Decision"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/hr-decision [put]
func (h *RequestHandler) HRDecision(c *gin.Context) {
	var req dto.DecisionPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	request, err := h.service.RecordHRDecision(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Delete godoc
// @Summary Delete a request
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddComment godoc
// @Summary Append a comment to a request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.CommentPayload true "Comment"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/comments [post]
func (h *RequestHandler) AddComment(c *gin.Context) {
	var req dto.CommentPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid comment payload"))
		return
	}
	request, err := h.service.AddComment(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
