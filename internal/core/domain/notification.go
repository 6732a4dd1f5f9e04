package domain

import "time"

type NotificationEvent string

const (
	EventUserCreated     NotificationEvent = "user_created"
	EventPasswordReset   NotificationEvent = "password_reset"
	EventPasswordChanged NotificationEvent = "password_changed"
)

// NotificationFailure is the audit record of an email that could not be delivered.
// Body is empty and Retryable false when the message carried a credential.
type NotificationFailure struct {
	ID          string            `db:"id"`
	UserID      string            `db:"aggregate_id"`
	Event       NotificationEvent `db:"event_type"`
	Recipient   string            `db:"recipient"`
	Subject     string            `db:"subject"`
	Body        string            `db:"body"`
	Retryable   bool              `db:"retryable"`
	Attempts    int               `db:"attempts"`
	LastError   string            `db:"last_error"`
	CreatedAt   time.Time         `db:"created_at"`
	ProcessedAt *time.Time        `db:"processed_at"`
}

// Delivered reports whether a later attempt got the email through.
func (f NotificationFailure) Delivered() bool {
	return f.ProcessedAt != nil && f.LastError == ""
}
