package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"infocollect/internal/mail"
	"infocollect/internal/model"
	"infocollect/internal/repository"
	"infocollect/internal/repository/testutil"
	"infocollect/internal/service"
)

type senderStub struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (s *senderStub) Send(ctx context.Context, msg mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newNotifyFixture(t *testing.T) (repository.SettingsRepository, *senderStub, service.NotificationService) {
	db := testutil.NewTestDB(t)
	settings := repository.NewSettingsRepository(db)
	sender := &senderStub{}
	svc := service.NewNotificationService(settings, sender, "https://site.example.com", "Example Site", "admin@example.com")
	return settings, sender, svc
}

func sampleSubmission() model.Submission {
	return model.Submission{
		ID:          42,
		FullName:    "John Doe",
		Telephone:   "555-1234",
		Email:       "john@example.com",
		Description: "hello",
	}
}

func TestNotificationService_DefaultEnabled(t *testing.T) {
	_, sender, svc := newNotifyFixture(t)

	svc.Notify(context.Background(), sampleSubmission())

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	require.Equal(t, "admin@example.com", msg.To)
	require.Contains(t, msg.Subject, "Example Site")
	require.Contains(t, msg.Body, "John Doe")
	require.Contains(t, msg.Body, "555-1234")
	require.Contains(t, msg.Body, "john@example.com")
	require.Contains(t, msg.Body, "https://site.example.com/admin/submissions")
}

func TestNotificationService_Disabled_NoMail(t *testing.T) {
	settings, sender, svc := newNotifyFixture(t)
	require.NoError(t, settings.Set(context.Background(), "notify.email_enabled", "false"))

	svc.Notify(context.Background(), sampleSubmission())

	require.Empty(t, sender.sent)
}

func TestNotificationService_ConfiguredRecipient(t *testing.T) {
	settings, sender, svc := newNotifyFixture(t)
	require.NoError(t, settings.Set(context.Background(), "notify.email", "ops@example.com"))

	svc.Notify(context.Background(), sampleSubmission())

	require.Len(t, sender.sent, 1)
	require.Equal(t, "ops@example.com", sender.sent[0].To)
}

func TestNotificationService_InvalidRecipientFallsBack(t *testing.T) {
	settings, sender, svc := newNotifyFixture(t)
	require.NoError(t, settings.Set(context.Background(), "notify.email", "not-an-address"))

	svc.Notify(context.Background(), sampleSubmission())

	require.Len(t, sender.sent, 1)
	require.Equal(t, "admin@example.com", sender.sent[0].To)
}

// Mail transport failures never propagate.
func TestNotificationService_SendFailureSwallowed(t *testing.T) {
	_, sender, svc := newNotifyFixture(t)
	sender.err = errors.New("smtp: connection refused")

	require.NotPanics(t, func() {
		svc.Notify(context.Background(), sampleSubmission())
	})
}
