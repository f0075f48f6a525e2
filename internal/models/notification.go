package models

import "time"

// NotificationKind labels what a notification is about.
type NotificationKind string

const (
	NotificationRequestSubmitted NotificationKind = "REQUEST_SUBMITTED"
	NotificationTutorDecision    NotificationKind = "TUTOR_DECISION"
	NotificationHRDecision       NotificationKind = "HR_DECISION"
)

// Notification is a best-effort record pushed to a user when a request
// changes state. Delivery failures never roll back the triggering write.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Kind      NotificationKind `db:"kind" json:"kind"`
	Payload   []byte           `db:"payload" json:"payload,omitempty"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter constrains notification listing.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}
