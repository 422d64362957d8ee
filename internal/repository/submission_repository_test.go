package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"infocollect/internal/model"
	"infocollect/internal/repository"
	"infocollect/internal/repository/testutil"

	"github.com/stretchr/testify/require"
)

func TestSubmissionRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, model.Submission{
		FullName:    "John Doe",
		Telephone:   "+1 (555) 123-4567",
		Email:       "john@example.com",
		Description: "Sample form submission",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.SubmittedAt.IsZero())

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, "John Doe", fetched.FullName)
	require.Equal(t, "+1 (555) 123-4567", fetched.Telephone)
	require.Equal(t, "john@example.com", fetched.Email)

	// No delivery attempt yet: status unset, both metadata groups absent
	require.Equal(t, model.WebhookStatusNone, fetched.WebhookStatus)
	require.Nil(t, fetched.WebhookSentAt)
	require.Nil(t, fetched.WebhookFailedAt)
	require.Nil(t, fetched.WebhookError)
	require.Nil(t, fetched.WebhookResponseCode)
}

func TestSubmissionRepository_List_NewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	old := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	testutil.SeedSubmission(t, db, model.Submission{FullName: "Old", Telephone: "1", Email: "a@b.com", SubmittedAt: old})
	testutil.SeedSubmission(t, db, model.Submission{FullName: "Recent", Telephone: "2", Email: "c@d.com", SubmittedAt: recent})

	subs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, "Recent", subs[0].FullName)
	require.Equal(t, "Old", subs[1].FullName)
}

func TestSubmissionRepository_Delete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	id := testutil.SeedSubmission(t, db, model.Submission{FullName: "X", Telephone: "1", Email: "a@b.com"})

	require.NoError(t, repo.Delete(ctx, id))

	_, err := repo.GetByID(ctx, id)
	require.ErrorIs(t, err, sql.ErrNoRows)

	err = repo.Delete(ctx, id)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSubmissionRepository_MarkWebhookSent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	id := testutil.SeedSubmission(t, db, model.Submission{FullName: "X", Telephone: "1", Email: "a@b.com"})
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.MarkWebhookSent(ctx, id, 204, at))

	sub, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.WebhookStatusSent, sub.WebhookStatus)
	require.NotNil(t, sub.WebhookSentAt)
	require.True(t, sub.WebhookSentAt.Equal(at))
	require.NotNil(t, sub.WebhookResponseCode)
	require.Equal(t, 204, *sub.WebhookResponseCode)
	require.Nil(t, sub.WebhookFailedAt)
	require.Nil(t, sub.WebhookError)
}

func TestSubmissionRepository_MarkWebhookFailed(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	id := testutil.SeedSubmission(t, db, model.Submission{FullName: "X", Telephone: "1", Email: "a@b.com"})
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.MarkWebhookFailed(ctx, id, "HTTP 404: not found", at))

	sub, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.WebhookStatusFailed, sub.WebhookStatus)
	require.NotNil(t, sub.WebhookFailedAt)
	require.NotNil(t, sub.WebhookError)
	require.Equal(t, "HTTP 404: not found", *sub.WebhookError)
	require.Nil(t, sub.WebhookSentAt)
	require.Nil(t, sub.WebhookResponseCode)
}

// A failure after a success must leave only the failed group populated,
// and vice versa.
func TestSubmissionRepository_StatusTransitionsExclusive(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	ctx := context.Background()

	id := testutil.SeedSubmission(t, db, model.Submission{FullName: "X", Telephone: "1", Email: "a@b.com"})

	require.NoError(t, repo.MarkWebhookSent(ctx, id, 200, time.Now()))
	require.NoError(t, repo.MarkWebhookFailed(ctx, id, "connection refused", time.Now()))

	sub, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.WebhookStatusFailed, sub.WebhookStatus)
	require.Nil(t, sub.WebhookSentAt)
	require.Nil(t, sub.WebhookResponseCode)

	require.NoError(t, repo.MarkWebhookSent(ctx, id, 201, time.Now()))

	sub, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.WebhookStatusSent, sub.WebhookStatus)
	require.Nil(t, sub.WebhookFailedAt)
	require.Nil(t, sub.WebhookError)
	require.Equal(t, 201, *sub.WebhookResponseCode)
}
