package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"infocollect/internal/service"
)

type SettingsHandler struct {
	service service.SettingsService
	webhook service.WebhookService
}

func NewSettingsHandler(service service.SettingsService, webhook service.WebhookService) *SettingsHandler {
	return &SettingsHandler{service: service, webhook: webhook}
}

// Request/Response types

type formSettingsResponse struct {
	EmailNotificationsEnabled bool   `json:"emailNotificationsEnabled"`
	NotificationEmail         string `json:"notificationEmail"`
	WebhookEnabled            bool   `json:"webhookEnabled"`
	WebhookURL                string `json:"webhookUrl"`
	WebhookAPIKey             string `json:"webhookApiKey"`
}

type formSettingsRequest struct {
	EmailNotificationsEnabled bool   `json:"emailNotificationsEnabled"`
	NotificationEmail         string `json:"notificationEmail"`
	WebhookEnabled            bool   `json:"webhookEnabled"`
	WebhookURL                string `json:"webhookUrl"`
	WebhookAPIKey             string `json:"webhookApiKey"`
}

type webhookTestResponse struct {
	Success      bool   `json:"success"`
	Status       string `json:"status"`
	ResponseCode int    `json:"responseCode,omitempty"`
	Message      string `json:"message,omitempty"`
}

func (h *SettingsHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/settings/form", h.GetFormSettings)
	g.PUT("/settings/form", h.UpdateFormSettings)
	g.POST("/settings/form/test-webhook", h.TestWebhook)
}

// GetFormSettings returns the submission-handling configuration.
// The webhook API key comes back masked.
func (h *SettingsHandler) GetFormSettings(c echo.Context) error {
	settings, err := h.service.GetFormSettings(c.Request().Context())
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to get settings"})
	}

	return c.JSON(http.StatusOK, formSettingsResponse{
		EmailNotificationsEnabled: settings.EmailNotificationsEnabled,
		NotificationEmail:         settings.NotificationEmail,
		WebhookEnabled:            settings.WebhookEnabled,
		WebhookURL:                settings.WebhookURL,
		WebhookAPIKey:             settings.WebhookAPIKey,
	})
}

// UpdateFormSettings updates the configuration. An empty or masked
// webhookApiKey keeps the stored key.
func (h *SettingsHandler) UpdateFormSettings(c echo.Context) error {
	var req formSettingsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	settings := &service.FormSettings{
		EmailNotificationsEnabled: req.EmailNotificationsEnabled,
		NotificationEmail:         req.NotificationEmail,
		WebhookEnabled:            req.WebhookEnabled,
		WebhookURL:                req.WebhookURL,
		WebhookAPIKey:             req.WebhookAPIKey,
	}

	if err := h.service.SetFormSettings(c.Request().Context(), settings); err != nil {
		return writeServiceError(c, err)
	}

	// Return updated settings (with masked key)
	return h.GetFormSettings(c)
}

// TestWebhook posts a test payload to the configured endpoint. It only
// needs a saved URL; the enabled flag is ignored so the connection can be
// verified before turning deliveries on.
func (h *SettingsHandler) TestWebhook(c echo.Context) error {
	result := h.webhook.TestConnection(c.Request().Context())

	return c.JSON(http.StatusOK, webhookTestResponse{
		Success:      result.Succeeded(),
		Status:       string(result.Status),
		ResponseCode: result.ResponseCode,
		Message:      result.Message,
	})
}
