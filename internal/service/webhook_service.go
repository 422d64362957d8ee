package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"infocollect/internal/config"
	"infocollect/internal/logger"
	"infocollect/internal/model"
	"infocollect/internal/network"
	"infocollect/internal/repository"
)

const (
	webhookTimeout      = 30 * time.Second
	webhookMaxRedirects = 5

	// Response-body snippets kept for display.
	errorSnippetLimit    = 100
	responseSnippetLimit = 200
)

const payloadSource = config.AppName + " - Form Collector"

// payloadTimeFormat matches the timestamp format external consumers expect.
const payloadTimeFormat = "2006-01-02 15:04:05"

// DeliveryStatus classifies the outcome of one webhook delivery attempt.
type DeliveryStatus string

const (
	DeliveryDisabled        DeliveryStatus = "disabled"
	DeliveryInvalidURL      DeliveryStatus = "invalid_url"
	DeliveryConnectionError DeliveryStatus = "connection_error"
	DeliveryHTTPError       DeliveryStatus = "http_error"
	DeliverySent            DeliveryStatus = "sent"
)

// DeliveryResult is the classified outcome of a dispatch or test call.
type DeliveryResult struct {
	Status       DeliveryStatus `json:"status"`
	ResponseCode int            `json:"responseCode,omitempty"`
	Message      string         `json:"message"`
	ResponseBody string         `json:"responseBody,omitempty"`
}

// Succeeded reports whether the payload was accepted by the endpoint.
func (r DeliveryResult) Succeeded() bool {
	return r.Status == DeliverySent
}

// WebhookService delivers form submissions to the configured automation
// endpoint. Delivery is best-effort: one synchronous POST, no retry, and the
// outcome of every network attempt is persisted on the submission record.
type WebhookService interface {
	// Dispatch attempts one delivery for the submission. It never fails the
	// caller; the classified result is returned and recorded on the record.
	Dispatch(ctx context.Context, sub model.Submission) DeliveryResult
	// TestConnection sends a synthetic payload to the configured URL without
	// referencing any submission. Nothing is persisted.
	TestConnection(ctx context.Context) DeliveryResult
}

type webhookService struct {
	settings    repository.SettingsRepository
	submissions repository.SubmissionRepository
	clients     *network.ClientFactory
	siteURL     string
	siteName    string
}

// NewWebhookService creates a new webhook dispatcher.
func NewWebhookService(
	settings repository.SettingsRepository,
	submissions repository.SubmissionRepository,
	clients *network.ClientFactory,
	siteURL, siteName string,
) WebhookService {
	return &webhookService{
		settings:    settings,
		submissions: submissions,
		clients:     clients,
		siteURL:     siteURL,
		siteName:    siteName,
	}
}

// Payload shape is a wire contract: external consumers parse these key names.

type webhookPayload struct {
	Meta  payloadMeta  `json:"meta"`
	Data  payloadData  `json:"data"`
	Event payloadEvent `json:"event"`
}

type payloadMeta struct {
	Source        string `json:"source"`
	PluginVersion string `json:"plugin_version"`
	SiteURL       string `json:"site_url"`
	SiteName      string `json:"site_name"`
	Timestamp     string `json:"timestamp"`
	PostID        int64  `json:"post_id"`
}

type payloadData struct {
	FullName    string `json:"full_name"`
	Telephone   string `json:"telephone"`
	Email       string `json:"email"`
	Description string `json:"description"`
}

type payloadEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type testPayload struct {
	Test      bool            `json:"test"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
	SiteURL   string          `json:"site_url"`
	Meta      testPayloadMeta `json:"meta"`
}

type testPayloadMeta struct {
	Source   string `json:"source"`
	TestMode bool   `json:"test_mode"`
}

func (s *webhookService) Dispatch(ctx context.Context, sub model.Submission) DeliveryResult {
	enabled, endpoint, apiKey := s.loadConfig(ctx)

	if !enabled || endpoint == "" {
		return DeliveryResult{Status: DeliveryDisabled, Message: "webhook disabled"}
	}
	if !isValidWebhookURL(endpoint) {
		logger.Warn("invalid webhook URL configured",
			"module", "service", "action", "dispatch", "resource", "webhook", "result", "failed",
			"submission_id", sub.ID)
		return DeliveryResult{Status: DeliveryInvalidURL, Message: "invalid webhook URL"}
	}

	payload := webhookPayload{
		Meta: payloadMeta{
			Source:        payloadSource,
			PluginVersion: config.AppVersion,
			SiteURL:       s.siteURL,
			SiteName:      s.siteName,
			Timestamp:     time.Now().Format(payloadTimeFormat),
			PostID:        sub.ID,
		},
		Data: payloadData{
			FullName:    sub.FullName,
			Telephone:   sub.Telephone,
			Email:       sub.Email,
			Description: sub.Description,
		},
		Event: payloadEvent{
			Type: "form_submission",
			// Fresh per attempt: a re-dispatched submission gets a new id.
			ID: uuid.NewString(),
		},
	}

	result := s.post(ctx, endpoint, apiKey, payload)
	s.record(ctx, sub.ID, result)
	return result
}

func (s *webhookService) TestConnection(ctx context.Context) DeliveryResult {
	_, endpoint, apiKey := s.loadConfig(ctx)

	if endpoint == "" {
		return DeliveryResult{Status: DeliveryDisabled, Message: "no webhook URL configured"}
	}
	if !isValidWebhookURL(endpoint) {
		return DeliveryResult{Status: DeliveryInvalidURL, Message: "invalid webhook URL"}
	}

	payload := testPayload{
		Test:      true,
		Message:   "Test webhook from " + s.siteName,
		Timestamp: time.Now().Format(payloadTimeFormat),
		SiteURL:   s.siteURL,
		Meta: testPayloadMeta{
			Source:   payloadSource + " (Test)",
			TestMode: true,
		},
	}

	result := s.post(ctx, endpoint, apiKey, payload)
	if result.Succeeded() {
		result.Message = fmt.Sprintf("webhook test successful (HTTP %d)", result.ResponseCode)
	}
	return result
}

// post performs the single synchronous delivery attempt and classifies the
// outcome. It never returns an error.
func (s *webhookService) post(ctx context.Context, endpoint, apiKey string, payload any) DeliveryResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return DeliveryResult{Status: DeliveryConnectionError, Message: "encode payload: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{Status: DeliveryInvalidURL, Message: "invalid webhook URL"}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", config.UserAgent)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	client := s.clients.NewHTTPClient(webhookTimeout, webhookMaxRedirects)
	resp, err := client.Do(req)
	if err != nil {
		return DeliveryResult{Status: DeliveryConnectionError, Message: connectionErrorMessage(err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	snippet := truncate(string(respBody), responseSnippetLimit)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return DeliveryResult{
			Status:       DeliverySent,
			ResponseCode: resp.StatusCode,
			Message:      fmt.Sprintf("webhook delivered (HTTP %d)", resp.StatusCode),
			ResponseBody: snippet,
		}
	}

	return DeliveryResult{
		Status:       DeliveryHTTPError,
		ResponseCode: resp.StatusCode,
		Message:      fmt.Sprintf("HTTP %d: %s", resp.StatusCode, httpErrorDetails(resp.StatusCode, string(respBody))),
		ResponseBody: snippet,
	}
}

// record persists the outcome of a network attempt on the submission.
// Disabled and invalid-URL short-circuits never reach here: the status
// fields only reflect real attempts.
func (s *webhookService) record(ctx context.Context, id int64, result DeliveryResult) {
	now := time.Now().UTC()

	switch result.Status {
	case DeliverySent:
		if err := s.submissions.MarkWebhookSent(ctx, id, result.ResponseCode, now); err != nil {
			logger.Error("record webhook success failed",
				"module", "service", "action", "dispatch", "resource", "webhook", "result", "failed",
				"submission_id", id, "error", err)
			return
		}
		logger.Info("webhook delivered",
			"module", "service", "action", "dispatch", "resource", "webhook", "result", "ok",
			"submission_id", id, "status_code", result.ResponseCode)
	case DeliveryConnectionError, DeliveryHTTPError:
		if err := s.submissions.MarkWebhookFailed(ctx, id, result.Message, now); err != nil {
			logger.Error("record webhook failure failed",
				"module", "service", "action", "dispatch", "resource", "webhook", "result", "failed",
				"submission_id", id, "error", err)
			return
		}
		logger.Warn("webhook delivery failed",
			"module", "service", "action", "dispatch", "resource", "webhook", "result", "failed",
			"submission_id", id, "error", result.Message)
	}
}

func (s *webhookService) loadConfig(ctx context.Context) (enabled bool, endpoint, apiKey string) {
	if setting, err := s.settings.Get(ctx, keyWebhookEnabled); err == nil && setting != nil {
		enabled = setting.Value == "true"
	}
	if setting, err := s.settings.Get(ctx, keyWebhookURL); err == nil && setting != nil {
		endpoint = strings.TrimSpace(setting.Value)
	}
	if setting, err := s.settings.Get(ctx, keyWebhookAPIKey); err == nil && setting != nil {
		apiKey = setting.Value
	}
	return enabled, endpoint, apiKey
}

func isValidWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func connectionErrorMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Err.Error()
	}
	return err.Error()
}

// httpErrorDetailTable maps common status codes to a human-readable cause.
// Display only, never used for control flow.
var httpErrorDetailTable = map[int]string{
	400: "Bad Request - the webhook endpoint may not be configured correctly",
	401: "Unauthorized - check the API key in settings",
	403: "Forbidden - the endpoint rejected the request, check authentication settings",
	404: "Not Found - the webhook URL is incorrect or the target workflow is not active",
	405: "Method Not Allowed - the endpoint might not accept POST requests",
	408: "Request Timeout - the endpoint took too long to respond",
	429: "Too Many Requests - rate limit exceeded",
	500: "Internal Server Error - the endpoint failed to process the webhook",
	502: "Bad Gateway - the endpoint server is unreachable",
	503: "Service Unavailable - the endpoint is temporarily down",
}

func httpErrorDetails(statusCode int, responseBody string) string {
	if detail, ok := httpErrorDetailTable[statusCode]; ok {
		return detail
	}
	if body := strings.TrimSpace(responseBody); body != "" {
		return truncate(body, errorSnippetLimit)
	}
	return "unknown error"
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
