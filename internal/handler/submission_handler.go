package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"infocollect/internal/model"
	"infocollect/internal/service"
)

type SubmissionHandler struct {
	service service.SubmissionService
}

func NewSubmissionHandler(service service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

func (h *SubmissionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/submissions", h.List)
	g.GET("/submissions/:id", h.GetByID)
	g.DELETE("/submissions/:id", h.Delete)
}

type submissionResponse struct {
	ID                  string  `json:"id"`
	FullName            string  `json:"fullName"`
	Telephone           string  `json:"telephone"`
	Email               string  `json:"email"`
	Description         string  `json:"description,omitempty"`
	SubmittedAt         string  `json:"submittedAt"`
	WebhookStatus       string  `json:"webhookStatus,omitempty"`
	WebhookSentAt       *string `json:"webhookSentAt,omitempty"`
	WebhookFailedAt     *string `json:"webhookFailedAt,omitempty"`
	WebhookError        *string `json:"webhookError,omitempty"`
	WebhookResponseCode *int    `json:"webhookResponseCode,omitempty"`
}

type submissionListResponse struct {
	Submissions []submissionResponse `json:"submissions"`
}

// List returns all submissions, newest first.
func (h *SubmissionHandler) List(c echo.Context) error {
	subs, err := h.service.List(c.Request().Context())
	if err != nil {
		return writeServiceError(c, err)
	}

	out := make([]submissionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubmissionResponse(sub))
	}

	return c.JSON(http.StatusOK, submissionListResponse{Submissions: out})
}

// GetByID returns a single submission.
func (h *SubmissionHandler) GetByID(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
	}

	sub, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.JSON(http.StatusOK, toSubmissionResponse(sub))
}

// Delete removes a submission.
func (h *SubmissionHandler) Delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid id"})
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return writeServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func toSubmissionResponse(sub model.Submission) submissionResponse {
	return submissionResponse{
		ID:                  idToString(sub.ID),
		FullName:            sub.FullName,
		Telephone:           sub.Telephone,
		Email:               sub.Email,
		Description:         sub.Description,
		SubmittedAt:         sub.SubmittedAt.UTC().Format(time.RFC3339),
		WebhookStatus:       sub.WebhookStatus,
		WebhookSentAt:       formatTimePtr(sub.WebhookSentAt),
		WebhookFailedAt:     formatTimePtr(sub.WebhookFailedAt),
		WebhookError:        sub.WebhookError,
		WebhookResponseCode: sub.WebhookResponseCode,
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
