package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kjebali/stagehub-api/internal/models"
	"github.com/kjebali/stagehub-api/internal/service"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
	"github.com/kjebali/stagehub-api/pkg/response"
)

// InternHandler exposes intern profile endpoints.
type InternHandler struct {
	service *service.InternService
}

// NewInternHandler constructs the handler.
func NewInternHandler(svc *service.InternService) *InternHandler {
	return &InternHandler{service: svc}
}

// List godoc
// @Summary List intern profiles
// @Tags Interns
// @Produce json
// @Param department query string false "Department filter"
// @Param tutor_id query string false "Tutor filter"
// @Param search query string false "School or department search"
// @Success 200 {object} response.Envelope
// @Router /interns [get]
func (h *InternHandler) List(c *gin.Context) {
	filter := models.InternFilter{
		Department: strings.TrimSpace(c.Query("department")),
		TutorID:    strings.TrimSpace(c.Query("tutor_id")),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       intQuery(c, "page", 1),
		PageSize:   intQuery(c, "page_size", 20),
	}
	interns, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, interns, pagination)
}

// Get godoc
// @Summary Get an intern profile
// @Tags Interns
// @Produce json
// @Param id path string true "Intern ID"
// @Success 200 {object} response.Envelope
// @Router /interns/{id} [get]
func (h *InternHandler) Get(c *gin.Context) {
	intern, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intern, nil)
}

// Create godoc
// @Summary Register an intern profile
// @Tags Interns
// @Accept json
// @Produce json
// @Param payload body service.CreateInternRequest true "Intern payload"
// @Success 201 {object} response.Envelope
// @Router /interns [post]
func (h *InternHandler) Create(c *gin.Context) {
	var req service.CreateInternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid intern payload"))
		return
	}
	intern, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, intern, nil)
}

// Update godoc
// @Summary Update an intern profile
// @Tags Interns
// @Accept json
// @Produce json
// @Param id path string true "Intern ID"
// @Param payload body service.UpdateInternRequest true "Intern payload"
// @Success 200 {object} response.Envelope
// @Router /interns/{id} [put]
func (h *InternHandler) Update(c *gin.Context) {
	var req service.UpdateInternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid intern payload"))
		return
	}
	intern, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intern, nil)
}

// Delete godoc
// @Summary Remove an intern profile
// @Tags Interns
// @Param id path string true "Intern ID"
// @Success 204
// @Router /interns/{id} [delete]
func (h *InternHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
