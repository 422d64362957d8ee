package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"infocollect/internal/logger"
	"infocollect/internal/service"
	"infocollect/internal/transient"
)

// FormHandler serves the public submission form. The flow is
// post-redirect-get: the POST never renders a page, it stashes any
// validation state in the transient store and redirects back.
type FormHandler struct {
	service    service.SubmissionService
	transients *transient.Store
	siteURL    string
	siteName   string
}

func NewFormHandler(service service.SubmissionService, transients *transient.Store, siteURL, siteName string) *FormHandler {
	return &FormHandler{service: service, transients: transients, siteURL: siteURL, siteName: siteName}
}

func (h *FormHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/", h.ShowForm)
	g.POST("/submit", h.Submit)
}

type formPageData struct {
	SiteName   string
	CSRFToken  string
	Success    bool
	SaveFailed bool
	Errors     map[string]string
	Values     map[string]string
}

// ShowForm renders the form. When redirected back after a validation
// failure, the error key in the query restores the entered values.
func (h *FormHandler) ShowForm(c echo.Context) error {
	data := formPageData{
		SiteName: h.siteName,
		Errors:   map[string]string{},
		Values:   map[string]string{},
	}
	if token, ok := c.Get("csrf").(string); ok {
		data.CSRFToken = token
	}

	switch {
	case c.QueryParam("success") == "1":
		data.Success = true
	case c.QueryParam("error") == "save_failed":
		data.SaveFailed = true
	case c.QueryParam("error") == "1":
		if key := c.QueryParam("key"); key != "" {
			state, err := h.transients.Take(c.Request().Context(), key)
			if err != nil {
				c.Logger().Error(err)
			} else if state != nil {
				data.Errors = state.Errors
				data.Values = state.Values
			}
		}
	}

	return c.Render(http.StatusOK, "form.html", data)
}

// Submit processes a form POST and redirects.
func (h *FormHandler) Submit(c echo.Context) error {
	in := service.SubmissionInput{
		FullName:    c.FormValue("full_name"),
		Telephone:   c.FormValue("telephone"),
		Email:       c.FormValue("email"),
		Description: c.FormValue("description"),
	}

	dest := h.redirectDestination(c)

	_, err := h.service.Create(c.Request().Context(), in)
	if err == nil {
		return c.Redirect(http.StatusSeeOther, appendQuery(dest, map[string]string{"success": "1"}))
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		token := transient.NewToken(dest, time.Now())
		state := transient.FormState{
			Errors: verr.Fields,
			Values: map[string]string{
				"full_name":   in.FullName,
				"telephone":   in.Telephone,
				"email":       in.Email,
				"description": in.Description,
			},
		}
		if err := h.transients.Put(c.Request().Context(), token, state, transient.DefaultTTL); err != nil {
			c.Logger().Error(err)
			return c.Redirect(http.StatusSeeOther, appendQuery(dest, map[string]string{"error": "save_failed"}))
		}
		return c.Redirect(http.StatusSeeOther, appendQuery(dest, map[string]string{"error": "1", "key": token}))
	}

	logger.Error("submission failed",
		"module", "handler", "action", "submit", "resource", "submission", "result", "failed",
		"error", err.Error())
	return c.Redirect(http.StatusSeeOther, appendQuery(dest, map[string]string{"error": "save_failed"}))
}

// redirectDestination picks where to send the browser after the POST.
// An explicit redirect_to field wins, then the referring page, then the
// site root. Anything cross-origin falls back to "/".
func (h *FormHandler) redirectDestination(c echo.Context) string {
	dest := c.FormValue("redirect_to")
	if dest == "" {
		dest = c.Request().Referer()
	}
	if dest == "" {
		return "/"
	}

	u, err := url.Parse(dest)
	if err != nil {
		return "/"
	}
	if u.Host != "" {
		site, err := url.Parse(h.siteURL)
		if err != nil || site.Host == "" || !strings.EqualFold(u.Host, site.Host) {
			return "/"
		}
	}

	if u.Path == "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return u.Path
}

// appendQuery adds parameters to a destination path, replacing any
// previous outcome parameters so banners don't stack across attempts.
func appendQuery(dest string, params map[string]string) string {
	u, err := url.Parse(dest)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Del("success")
	q.Del("error")
	q.Del("key")
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
