package models

import "time"

// Intern is the internship profile attached to a user with the INTERN role.
type Intern struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	School     string     `db:"school" json:"school"`
	Department string     `db:"department" json:"department"`
	TutorID    string     `db:"tutor_id" json:"tutor_id"`
	StartDate  *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate    *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// InternFilter captures filtering criteria for listing intern profiles.
type InternFilter struct {
	Department string
	TutorID    string
	Search     string
	Page       int
	PageSize   int
}
