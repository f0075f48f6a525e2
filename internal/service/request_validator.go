package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/kjebali/stagehub-api/internal/dto"
	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// validatedRequest is the outcome of payload validation: parsed dates plus
// the cleaned free-text fields.
type validatedRequest struct {
	Type      models.RequestType
	Title     string
	Details   string
	StartDate *time.Time
	EndDate   *time.Time
}

// validateCreatePayload applies the field-presence and enum checks before
// anything reaches the store. Side-effect free; all field problems are
// collected into one validation error.
func validateCreatePayload(req dto.CreateRequestPayload) (*validatedRequest, error) {
	var fieldErrs []string

	if !req.Type.Valid() {
		fieldErrs = append(fieldErrs, fmt.Sprintf("type: %q is not a supported request type", string(req.Type)))
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		fieldErrs = append(fieldErrs, "title: must not be empty")
	}
	details := strings.TrimSpace(req.Details)
	if details == "" {
		fieldErrs = append(fieldErrs, "details: must not be empty")
	}

	var startDate, endDate *time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			fieldErrs = append(fieldErrs, "start_date: expected YYYY-MM-DD")
		} else {
			startDate = &parsed
		}
	}
	if req.EndDate != "" {
		parsed, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			fieldErrs = append(fieldErrs, "end_date: expected YYYY-MM-DD")
		} else {
			endDate = &parsed
		}
	}

	if req.Type.Valid() && req.Type.RequiresDateRange() {
		switch {
		case startDate == nil || endDate == nil:
			fieldErrs = append(fieldErrs, fmt.Sprintf("start_date/end_date: required for type %s", string(req.Type)))
		case endDate.Before(*startDate):
			fieldErrs = append(fieldErrs, "end_date: must not precede start_date")
		}
	}

	if len(fieldErrs) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, strings.Join(fieldErrs, "; "))
	}

	return &validatedRequest{
		Type:      req.Type,
		Title:     title,
		Details:   details,
		StartDate: startDate,
		EndDate:   endDate,
	}, nil
}

// validateDecisionPayload restricts recorded decisions to the two terminal
// values; PENDING is never a recordable decision.
func validateDecisionPayload(req dto.DecisionPayload) error {
	if req.Decision != models.DecisionApproved && req.Decision != models.DecisionRejected {
		return appErrors.Clone(appErrors.ErrValidation, "decision: must be APPROVED or REJECTED")
	}
	return nil
}
