package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"infocollect/internal/repository"
)

// FormSettings holds the submission-handling configuration.
type FormSettings struct {
	EmailNotificationsEnabled bool   `json:"emailNotificationsEnabled"`
	NotificationEmail         string `json:"notificationEmail"`
	WebhookEnabled            bool   `json:"webhookEnabled"`
	WebhookURL                string `json:"webhookUrl"`
	WebhookAPIKey             string `json:"webhookApiKey"`
}

// Setting keys
const (
	keyNotifyEmailEnabled = "notify.email_enabled"
	keyNotifyEmail        = "notify.email"
	keyWebhookEnabled     = "webhook.enabled"
	keyWebhookURL         = "webhook.url"
	keyWebhookAPIKey      = "webhook.api_key"
)

// SettingsService provides settings management.
type SettingsService interface {
	// GetFormSettings returns the configuration with the API key masked.
	GetFormSettings(ctx context.Context) (*FormSettings, error)
	// SetFormSettings updates the configuration.
	// An empty or masked apiKey keeps the existing key.
	SetFormSettings(ctx context.Context, settings *FormSettings) error
}

type settingsService struct {
	repo repository.SettingsRepository
}

// NewSettingsService creates a new settings service.
func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

// GetFormSettings returns the configuration with the API key masked.
func (s *settingsService) GetFormSettings(ctx context.Context) (*FormSettings, error) {
	settings := &FormSettings{
		EmailNotificationsEnabled: true, // default
	}

	if val, err := s.getString(ctx, keyNotifyEmailEnabled); err == nil && val != "" {
		settings.EmailNotificationsEnabled = val == "true"
	}
	if val, err := s.getString(ctx, keyNotifyEmail); err == nil {
		settings.NotificationEmail = val
	}
	if val, err := s.getString(ctx, keyWebhookEnabled); err == nil && val == "true" {
		settings.WebhookEnabled = true
	}
	if val, err := s.getString(ctx, keyWebhookURL); err == nil {
		settings.WebhookURL = val
	}
	if val, err := s.getString(ctx, keyWebhookAPIKey); err == nil && val != "" {
		settings.WebhookAPIKey = maskAPIKey(val)
	}

	return settings, nil
}

// SetFormSettings updates the configuration.
func (s *settingsService) SetFormSettings(ctx context.Context, settings *FormSettings) error {
	notifyVal := "false"
	if settings.EmailNotificationsEnabled {
		notifyVal = "true"
	}
	if err := s.repo.Set(ctx, keyNotifyEmailEnabled, notifyVal); err != nil {
		return fmt.Errorf("set email notifications: %w", err)
	}

	email := strings.TrimSpace(settings.NotificationEmail)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return &ValidationError{Fields: map[string]string{
				"notificationEmail": "Please enter a valid email address.",
			}}
		}
	}
	if err := s.repo.Set(ctx, keyNotifyEmail, email); err != nil {
		return fmt.Errorf("set notification email: %w", err)
	}

	webhookVal := "false"
	if settings.WebhookEnabled {
		webhookVal = "true"
	}
	if err := s.repo.Set(ctx, keyWebhookEnabled, webhookVal); err != nil {
		return fmt.Errorf("set webhook enabled: %w", err)
	}
	if err := s.repo.Set(ctx, keyWebhookURL, strings.TrimSpace(settings.WebhookURL)); err != nil {
		return fmt.Errorf("set webhook url: %w", err)
	}
	if err := s.setAPIKey(ctx, keyWebhookAPIKey, settings.WebhookAPIKey); err != nil {
		return fmt.Errorf("set webhook api key: %w", err)
	}

	return nil
}

// maskAPIKey returns a masked version of the API key for display.
func maskAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 8 {
		return "***"
	}
	return apiKey[:2] + "***" + apiKey[len(apiKey)-3:]
}

// isMaskedKey checks if a string looks like a masked API key.
func isMaskedKey(key string) bool {
	return strings.Contains(key, "***")
}

// setAPIKey sets an API key.
// If the value is empty or looks like a masked key, it keeps the existing key.
func (s *settingsService) setAPIKey(ctx context.Context, key, value string) error {
	if value == "" || isMaskedKey(value) {
		return nil
	}
	return s.repo.Set(ctx, key, value)
}

// getString gets a plain string value from settings.
func (s *settingsService) getString(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}
