package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"infocollect/internal/handler"
	"infocollect/internal/service"
	"infocollect/internal/web"
)

func NewRouter(
	formHandler *handler.FormHandler,
	submissionHandler *handler.SubmissionHandler,
	settingsHandler *handler.SettingsHandler,
	authHandler *handler.AuthHandler,
	authService service.AuthService,
) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(RequestLoggerMiddleware())

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	e.Renderer = renderer

	// Public form pages with CSRF protection. A bad or missing token is
	// rejected outright, there is no redirect back to the form.
	form := e.Group("", middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "_csrf",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	formHandler.RegisterRoutes(form)

	api := e.Group("/api")
	authHandler.RegisterPublicRoutes(api)

	protected := e.Group("/api", JWTAuthMiddleware(authService))
	authHandler.RegisterProtectedRoutes(protected)
	submissionHandler.RegisterRoutes(protected)
	settingsHandler.RegisterRoutes(protected)

	return e, nil
}
