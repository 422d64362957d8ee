package model

import "time"

// Webhook delivery status values persisted on a submission.
const (
	WebhookStatusNone   = ""
	WebhookStatusSent   = "sent"
	WebhookStatusFailed = "failed"
)

// Submission is one persisted form entry. The four text fields are stored
// verbatim after boundary sanitization. The webhook fields are written only
// by the webhook dispatcher: after a delivery attempt exactly one of the
// sent (SentAt + ResponseCode) or failed (FailedAt + Error) groups is set.
type Submission struct {
	ID          int64
	FullName    string
	Telephone   string
	Email       string
	Description string
	SubmittedAt time.Time

	WebhookStatus       string
	WebhookSentAt       *time.Time
	WebhookFailedAt     *time.Time
	WebhookError        *string
	WebhookResponseCode *int
}
