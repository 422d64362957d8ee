package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"infocollect/internal/logger"
	"infocollect/internal/model"
	"infocollect/internal/repository"
)

// SubmissionService handles the lifecycle of form submissions: validation,
// persistence, and the best-effort notification and webhook side effects.
type SubmissionService interface {
	// Create sanitizes and validates the input, persists a new submission,
	// then notifies the administrator and dispatches the webhook. The side
	// effects are best-effort and never fail the call: only validation and
	// store errors are returned.
	Create(ctx context.Context, in SubmissionInput) (model.Submission, error)
	GetByID(ctx context.Context, id int64) (model.Submission, error)
	List(ctx context.Context) ([]model.Submission, error)
	Delete(ctx context.Context, id int64) error
}

type submissionService struct {
	repo     repository.SubmissionRepository
	notifier NotificationService
	webhook  WebhookService
}

func NewSubmissionService(
	repo repository.SubmissionRepository,
	notifier NotificationService,
	webhook WebhookService,
) SubmissionService {
	return &submissionService{repo: repo, notifier: notifier, webhook: webhook}
}

func (s *submissionService) Create(ctx context.Context, in SubmissionInput) (model.Submission, error) {
	in = Sanitize(in)

	if errs := ValidateSubmission(in); len(errs) > 0 {
		return model.Submission{}, &ValidationError{Fields: errs}
	}

	sub, err := s.repo.Create(ctx, model.Submission{
		FullName:    in.FullName,
		Telephone:   in.Telephone,
		Email:       in.Email,
		Description: in.Description,
	})
	if err != nil {
		return model.Submission{}, fmt.Errorf("create submission: %w", err)
	}

	logger.Info("submission created",
		"module", "service", "action", "create", "resource", "submission", "result", "ok",
		"submission_id", sub.ID)

	// Store write precedes both side effects; neither alters the outcome.
	s.notifier.Notify(ctx, sub)
	s.webhook.Dispatch(ctx, sub)

	return sub, nil
}

func (s *submissionService) GetByID(ctx context.Context, id int64) (model.Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Submission{}, ErrNotFound
		}
		return model.Submission{}, err
	}
	return sub, nil
}

func (s *submissionService) List(ctx context.Context) ([]model.Submission, error) {
	return s.repo.List(ctx)
}

func (s *submissionService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
