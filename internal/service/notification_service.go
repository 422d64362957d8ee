package service

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"

	"infocollect/internal/logger"
	"infocollect/internal/mail"
	"infocollect/internal/model"
	"infocollect/internal/repository"
)

// NotificationService emails the administrator about new submissions.
// Delivery is fire-and-forget: transport failures are logged, never surfaced.
type NotificationService interface {
	Notify(ctx context.Context, sub model.Submission)
}

type notificationService struct {
	settings   repository.SettingsRepository
	sender     mail.Sender
	siteURL    string
	siteName   string
	adminEmail string
}

func NewNotificationService(
	settings repository.SettingsRepository,
	sender mail.Sender,
	siteURL, siteName, adminEmail string,
) NotificationService {
	return &notificationService{
		settings:   settings,
		sender:     sender,
		siteURL:    siteURL,
		siteName:   siteName,
		adminEmail: adminEmail,
	}
}

func (s *notificationService) Notify(ctx context.Context, sub model.Submission) {
	if !s.enabled(ctx) {
		return
	}

	to := s.recipient(ctx)
	if to == "" {
		logger.Warn("no notification recipient configured",
			"module", "service", "action", "notify", "resource", "mail", "result", "failed",
			"submission_id", sub.ID)
		return
	}

	msg := mail.Message{
		To:      to,
		Subject: fmt.Sprintf("[%s] New form submission", s.siteName),
		Body:    s.body(sub),
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		logger.Warn("notification mail failed",
			"module", "service", "action", "notify", "resource", "mail", "result", "failed",
			"submission_id", sub.ID, "error", err)
		return
	}

	logger.Info("notification mail sent",
		"module", "service", "action", "notify", "resource", "mail", "result", "ok",
		"submission_id", sub.ID)
}

func (s *notificationService) enabled(ctx context.Context) bool {
	setting, err := s.settings.Get(ctx, keyNotifyEmailEnabled)
	if err != nil || setting == nil {
		return true // default on
	}
	return setting.Value == "true"
}

// recipient returns the configured notification address, falling back to the
// admin address when the setting is unset or invalid.
func (s *notificationService) recipient(ctx context.Context) string {
	if setting, err := s.settings.Get(ctx, keyNotifyEmail); err == nil && setting != nil {
		addr := strings.TrimSpace(setting.Value)
		if addr != "" {
			if _, err := netmail.ParseAddress(addr); err == nil {
				return addr
			}
		}
	}
	return s.adminEmail
}

func (s *notificationService) body(sub model.Submission) string {
	var b strings.Builder
	b.WriteString("A new form submission has been received:\n\n")
	fmt.Fprintf(&b, "Full Name: %s\n", sub.FullName)
	fmt.Fprintf(&b, "Telephone: %s\n", sub.Telephone)
	fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	fmt.Fprintf(&b, "Description:\n%s\n\n", sub.Description)
	fmt.Fprintf(&b, "Submitted on: %s\n\n", sub.SubmittedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "View submissions: %s/admin/submissions\n", strings.TrimRight(s.siteURL, "/"))
	return b.String()
}
