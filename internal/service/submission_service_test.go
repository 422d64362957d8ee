package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"infocollect/internal/model"
	"infocollect/internal/repository/mock"
	"infocollect/internal/service"
)

type notifierSpy struct {
	notified []model.Submission
}

func (n *notifierSpy) Notify(ctx context.Context, sub model.Submission) {
	n.notified = append(n.notified, sub)
}

type webhookSpy struct {
	dispatched []model.Submission
	result     service.DeliveryResult
}

func (w *webhookSpy) Dispatch(ctx context.Context, sub model.Submission) service.DeliveryResult {
	w.dispatched = append(w.dispatched, sub)
	return w.result
}

func (w *webhookSpy) TestConnection(ctx context.Context) service.DeliveryResult {
	return w.result
}

func TestSubmissionService_Create_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockSubmissionRepository(ctrl)
	notifier := &notifierSpy{}
	webhook := &webhookSpy{result: service.DeliveryResult{Status: service.DeliverySent, ResponseCode: 200}}
	svc := service.NewSubmissionService(repo, notifier, webhook)
	ctx := context.Background()

	repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, sub model.Submission) (model.Submission, error) {
			sub.ID = 42
			return sub, nil
		})

	sub, err := svc.Create(ctx, service.SubmissionInput{
		FullName:  "John Doe",
		Telephone: "555-1234",
		Email:     "john@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), sub.ID)

	require.Len(t, notifier.notified, 1)
	require.Equal(t, int64(42), notifier.notified[0].ID)
	require.Len(t, webhook.dispatched, 1)
	require.Equal(t, int64(42), webhook.dispatched[0].ID)
}

func TestSubmissionService_Create_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockSubmissionRepository(ctrl)
	notifier := &notifierSpy{}
	webhook := &webhookSpy{}
	svc := service.NewSubmissionService(repo, notifier, webhook)

	// No repo expectations: invalid input must never reach the store
	_, err := svc.Create(context.Background(), service.SubmissionInput{
		FullName:  "",
		Telephone: "555-1234",
		Email:     "a@b.com",
	})
	require.ErrorIs(t, err, service.ErrInvalid)

	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 1)
	require.Contains(t, verr.Fields, "full_name")

	require.Empty(t, notifier.notified)
	require.Empty(t, webhook.dispatched)
}

func TestSubmissionService_Create_SanitizesBeforePersist(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockSubmissionRepository(ctrl)
	svc := service.NewSubmissionService(repo, &notifierSpy{}, &webhookSpy{})
	ctx := context.Background()

	var persisted model.Submission
	repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, sub model.Submission) (model.Submission, error) {
			persisted = sub
			sub.ID = 1
			return sub, nil
		})

	_, err := svc.Create(ctx, service.SubmissionInput{
		FullName:  "  John <b>Doe</b>  ",
		Telephone: " 555-1234 ",
		Email:     "john@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "John Doe", persisted.FullName)
	require.Equal(t, "555-1234", persisted.Telephone)
}

func TestSubmissionService_Create_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockSubmissionRepository(ctrl)
	notifier := &notifierSpy{}
	webhook := &webhookSpy{}
	svc := service.NewSubmissionService(repo, notifier, webhook)
	ctx := context.Background()

	repo.EXPECT().
		Create(ctx, gomock.Any()).
		Return(model.Submission{}, errors.New("disk full"))

	_, err := svc.Create(ctx, service.SubmissionInput{
		FullName:  "John",
		Telephone: "555",
		Email:     "a@b.com",
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, service.ErrInvalid)

	// No side effects without a stored record
	require.Empty(t, notifier.notified)
	require.Empty(t, webhook.dispatched)
}

// A failed webhook delivery must not fail the submission.
func TestSubmissionService_Create_WebhookFailureIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockSubmissionRepository(ctrl)
	webhook := &webhookSpy{result: service.DeliveryResult{
		Status:  service.DeliveryHTTPError,
		Message: "HTTP 404: Not Found",
	}}
	svc := service.NewSubmissionService(repo, &notifierSpy{}, webhook)
	ctx := context.Background()

	repo.EXPECT().
		Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, sub model.Submission) (model.Submission, error) {
			sub.ID = 7
			return sub, nil
		})

	sub, err := svc.Create(ctx, service.SubmissionInput{
		FullName:  "John",
		Telephone: "555",
		Email:     "a@b.com",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), sub.ID)
	require.Len(t, webhook.dispatched, 1)
}

func TestSubmissionService_GetByID_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockSubmissionRepository(ctrl)
	svc := service.NewSubmissionService(repo, &notifierSpy{}, &webhookSpy{})
	ctx := context.Background()

	repo.EXPECT().GetByID(ctx, int64(999)).Return(model.Submission{}, sql.ErrNoRows)

	_, err := svc.GetByID(ctx, 999)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestSubmissionService_Delete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock.NewMockSubmissionRepository(ctrl)
	svc := service.NewSubmissionService(repo, &notifierSpy{}, &webhookSpy{})
	ctx := context.Background()

	repo.EXPECT().Delete(ctx, int64(999)).Return(sql.ErrNoRows)

	require.ErrorIs(t, svc.Delete(ctx, 999), service.ErrNotFound)
}
