package handler_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"infocollect/internal/handler"
	"infocollect/internal/mail"
	"infocollect/internal/network"
	"infocollect/internal/repository"
	"infocollect/internal/repository/testutil"
	"infocollect/internal/service"
	"infocollect/internal/transient"
	"infocollect/internal/web"
)

const testSiteURL = "https://forms.example.com"

type formFixture struct {
	e           *echo.Echo
	handler     *handler.FormHandler
	submissions repository.SubmissionRepository
	transients  *transient.Store
}

func newFormFixture(t *testing.T) *formFixture {
	t.Helper()

	dbConn := testutil.NewTestDB(t)
	submissionRepo := repository.NewSubmissionRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)

	webhook := service.NewWebhookService(settingsRepo, submissionRepo, network.NewClientFactory(false), testSiteURL, "Example Forms")
	notifier := service.NewNotificationService(settingsRepo, mail.NewNoopSender(), testSiteURL, "Example Forms", "")
	svc := service.NewSubmissionService(submissionRepo, notifier, webhook)
	transients := transient.NewStore(settingsRepo)

	e := echo.New()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	e.Renderer = renderer

	h := handler.NewFormHandler(svc, transients, testSiteURL, "Example Forms")

	return &formFixture{e: e, handler: h, submissions: submissionRepo, transients: transients}
}

func postForm(f *formFixture, values url.Values, referer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	_ = f.handler.Submit(c)
	return rec
}

func TestFormHandler_Submit_Success(t *testing.T) {
	f := newFormFixture(t)

	rec := postForm(f, url.Values{
		"full_name": {"John Doe"},
		"telephone": {"555-1234"},
		"email":     {"john@example.com"},
	}, testSiteURL+"/contact")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/contact", loc.Path)
	require.Equal(t, "1", loc.Query().Get("success"))

	subs, err := f.submissions.List(t.Context())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "John Doe", subs[0].FullName)
}

func TestFormHandler_Submit_ValidationErrorRoundTrip(t *testing.T) {
	f := newFormFixture(t)

	rec := postForm(f, url.Values{
		"full_name": {""},
		"telephone": {"abc"},
		"email":     {"john@example.com"},
	}, testSiteURL+"/contact")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "1", loc.Query().Get("error"))
	key := loc.Query().Get("key")
	require.NotEmpty(t, key)

	// Nothing persisted on validation failure
	subs, err := f.submissions.List(t.Context())
	require.NoError(t, err)
	require.Empty(t, subs)

	// Following the redirect restores errors and entered values
	req := httptest.NewRequest(http.MethodGet, "/?error=1&key="+key, nil)
	getRec := httptest.NewRecorder()
	c := f.e.NewContext(req, getRec)
	require.NoError(t, f.handler.ShowForm(c))

	body := getRec.Body.String()
	require.Contains(t, body, "Full Name is required.")
	require.Contains(t, body, "valid phone number")
	require.Contains(t, body, "john@example.com")
}

func TestFormHandler_Submit_RedirectToFieldWins(t *testing.T) {
	f := newFormFixture(t)

	rec := postForm(f, url.Values{
		"full_name":   {"John Doe"},
		"telephone":   {"555-1234"},
		"email":       {"john@example.com"},
		"redirect_to": {"/landing"},
	}, testSiteURL+"/contact")

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/landing", loc.Path)
	require.Equal(t, "1", loc.Query().Get("success"))
}

func TestFormHandler_Submit_CrossOriginRefererFallsBackToRoot(t *testing.T) {
	f := newFormFixture(t)

	rec := postForm(f, url.Values{
		"full_name": {"John Doe"},
		"telephone": {"555-1234"},
		"email":     {"john@example.com"},
	}, "https://evil.example.org/phish")

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/", loc.Path)
}

func TestFormHandler_ShowForm_SuccessBanner(t *testing.T) {
	f := newFormFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/?success=1", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	require.NoError(t, f.handler.ShowForm(c))

	require.Contains(t, rec.Body.String(), "has been submitted")
}

func TestFormHandler_ShowForm_UnknownKeyRendersCleanForm(t *testing.T) {
	f := newFormFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/?error=1&key=deadbeef", nil)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	require.NoError(t, f.handler.ShowForm(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "field-error\">")
}
