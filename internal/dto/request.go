package dto

import "github.com/kjebali/stagehub-api/internal/models"

// CreateRequestPayload is the body for submitting a new request.
type CreateRequestPayload struct {
	Type      models.RequestType `json:"type" validate:"required"`
	Title     string             `json:"title" validate:"required"`
	Details   string             `json:"details" validate:"required"`
	StartDate string             `json:"start_date,omitempty"`
	EndDate   string             `json:"end_date,omitempty"`
	TutorID   string             `json:"tutor_id,omitempty"`
}

// UpdateRequestPayload lets the requester amend free text before any
// decision has been recorded.
type UpdateRequestPayload struct {
	Title   string `json:"title" validate:"required"`
	Details string `json:"details" validate:"required"`
}

// DecisionPayload is the body for recording a tutor or HR decision.
type DecisionPayload struct {
	Decision models.Decision `json:"decision" validate:"required"`
	Comment  string          `json:"comment,omitempty"`
}

// CommentPayload appends a comment to a request.
type CommentPayload struct {
	Text string `json:"text" validate:"required"`
}

// RequestQuery mirrors the supported listing filters.
type RequestQuery struct {
	RequesterID string
	TutorID     string
	Status      models.OverallStatus
	Type        models.RequestType
	Limit       int
	Offset      int
}
