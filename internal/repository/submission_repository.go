package repository

import (
	"context"
	"database/sql"
	"time"

	"infocollect/internal/model"
	"infocollect/internal/snowflake"
)

// SubmissionRepository defines the interface for submission storage.
// Records are append-only apart from the webhook delivery status fields,
// which are mutated once per dispatch attempt.
type SubmissionRepository interface {
	Create(ctx context.Context, sub model.Submission) (model.Submission, error)
	GetByID(ctx context.Context, id int64) (model.Submission, error)
	List(ctx context.Context) ([]model.Submission, error)
	Delete(ctx context.Context, id int64) error
	MarkWebhookSent(ctx context.Context, id int64, responseCode int, at time.Time) error
	MarkWebhookFailed(ctx context.Context, id int64, message string, at time.Time) error
}

type submissionRepository struct {
	db dbtx
}

func NewSubmissionRepository(db dbtx) SubmissionRepository {
	return &submissionRepository{db: db}
}

const submissionColumns = `id, full_name, telephone, email, description, submitted_at,
	webhook_status, webhook_sent_at, webhook_failed_at, webhook_error, webhook_response_code`

func (r *submissionRepository) Create(ctx context.Context, sub model.Submission) (model.Submission, error) {
	sub.ID = snowflake.NextID()
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO submissions (id, full_name, telephone, email, description, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.FullName,
		sub.Telephone,
		sub.Email,
		sub.Description,
		formatTime(sub.SubmittedAt),
	)
	if err != nil {
		return model.Submission{}, err
	}

	return sub, nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id int64) (model.Submission, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = ?`,
		id,
	)
	return scanSubmission(row.Scan)
}

func (r *submissionRepository) List(ctx context.Context) ([]model.Submission, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+submissionColumns+` FROM submissions ORDER BY submitted_at DESC, id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *submissionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkWebhookSent records a successful delivery. The failure fields are
// cleared so only one status group is ever populated.
func (r *submissionRepository) MarkWebhookSent(ctx context.Context, id int64, responseCode int, at time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE submissions SET
		   webhook_status = ?,
		   webhook_sent_at = ?,
		   webhook_response_code = ?,
		   webhook_failed_at = NULL,
		   webhook_error = NULL
		 WHERE id = ?`,
		model.WebhookStatusSent,
		formatTime(at),
		responseCode,
		id,
	)
	return err
}

// MarkWebhookFailed records a failed delivery, overwriting any earlier
// outcome.
func (r *submissionRepository) MarkWebhookFailed(ctx context.Context, id int64, message string, at time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE submissions SET
		   webhook_status = ?,
		   webhook_failed_at = ?,
		   webhook_error = ?,
		   webhook_sent_at = NULL,
		   webhook_response_code = NULL
		 WHERE id = ?`,
		model.WebhookStatusFailed,
		formatTime(at),
		message,
		id,
	)
	return err
}

func scanSubmission(scan func(dest ...any) error) (model.Submission, error) {
	var s model.Submission
	var submittedAt string
	var sentAt, failedAt, webhookError sql.NullString
	var responseCode sql.NullInt64

	err := scan(
		&s.ID, &s.FullName, &s.Telephone, &s.Email, &s.Description, &submittedAt,
		&s.WebhookStatus, &sentAt, &failedAt, &webhookError, &responseCode,
	)
	if err != nil {
		return model.Submission{}, err
	}

	s.SubmittedAt, _ = parseTime(submittedAt)
	s.WebhookSentAt = parseTimePtr(sentAt)
	s.WebhookFailedAt = parseTimePtr(failedAt)
	if webhookError.Valid {
		s.WebhookError = &webhookError.String
	}
	if responseCode.Valid {
		code := int(responseCode.Int64)
		s.WebhookResponseCode = &code
	}

	return s, nil
}
