package models

import "time"

// RequestType enumerates the closed set of request categories an intern can submit.
type RequestType string

const (
	RequestTypeAcademicInternship     RequestType = "ACADEMIC_INTERNSHIP"
	RequestTypeProfessionalInternship RequestType = "PROFESSIONAL_INTERNSHIP"
	RequestTypeLeave                  RequestType = "LEAVE"
	RequestTypeExtension              RequestType = "EXTENSION"
	RequestTypeCertificate            RequestType = "CERTIFICATE"
)

// Valid reports whether the type is a member of the closed enumeration.
func (t RequestType) Valid() bool {
	switch t {
	case RequestTypeAcademicInternship, RequestTypeProfessionalInternship,
		RequestTypeLeave, RequestTypeExtension, RequestTypeCertificate:
		return true
	}
	return false
}

// RequiresDateRange reports whether the type must carry a start/end date pair.
func (t RequestType) RequiresDateRange() bool {
	switch t {
	case RequestTypeAcademicInternship, RequestTypeProfessionalInternship,
		RequestTypeLeave, RequestTypeExtension:
		return true
	}
	return false
}

// Decision captures the per-stage review outcome. Once a decision leaves
// PENDING it never returns to it.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Terminal reports whether the decision has been recorded.
func (d Decision) Terminal() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// OverallStatus is the display-level status derived from the two decision
// fields. It is never stored.
type OverallStatus string

const (
	StatusPending  OverallStatus = "PENDING"
	StatusInReview OverallStatus = "IN_REVIEW"
	StatusApproved OverallStatus = "APPROVED"
	StatusRejected OverallStatus = "REJECTED"
)

// Request is an intern-submitted workflow item that moves through a
// sequential tutor review then HR review.
type Request struct {
	ID            string      `db:"id" json:"id"`
	RequesterID   string      `db:"requester_id" json:"requester_id"`
	Type          RequestType `db:"type" json:"type"`
	Title         string      `db:"title" json:"title"`
	Details       string      `db:"details" json:"details"`
	StartDate     *time.Time  `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time  `db:"end_date" json:"end_date,omitempty"`
	TutorID       string      `db:"tutor_id" json:"tutor_id"`
	TutorDecision Decision    `db:"tutor_decision" json:"tutor_decision"`
	HRDecision    Decision    `db:"hr_decision" json:"hr_decision"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`

	OverallStatus OverallStatus    `db:"-" json:"overall_status"`
	Comments      []RequestComment `db:"-" json:"comments,omitempty"`
}

// RequestComment is an append-only annotation on a request. Comments are
// never edited or deleted.
type RequestComment struct {
	ID         string    `db:"id" json:"id"`
	RequestID  string    `db:"request_id" json:"request_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	AuthorRole UserRole  `db:"author_role" json:"author_role"`
	Text       string    `db:"text" json:"text"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RequestFilter constrains listing queries.
type RequestFilter struct {
	RequesterID string
	TutorID     string
	Status      OverallStatus
	Type        RequestType
	Limit       int
	Offset      int
}
