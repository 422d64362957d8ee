package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"infocollect/internal/service"
)

// authCookieName must match the one in the http middleware
const authCookieName = "infocollect_auth"

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request/Response types

type authStatusResponse struct {
	Exists bool `json:"exists"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string        `json:"token"`
	User  *userResponse `json:"user"`
}

type userResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterPublicRoutes registers routes that don't require authentication.
func (h *AuthHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/auth/exists", h.GetStatus)
	g.POST("/auth/register", h.Register)
	g.POST("/auth/login", h.Login)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *AuthHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/auth/me", h.GetCurrentUser)
	g.POST("/auth/logout", h.Logout)
}

// GetStatus reports whether the admin account has been created.
func (h *AuthHandler) GetStatus(c echo.Context) error {
	exists, err := h.service.CheckUserExists(c.Request().Context())
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to check status"})
	}

	return c.JSON(http.StatusOK, authStatusResponse{Exists: exists})
}

// Register creates the admin account. Only one account may exist.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	resp, err := h.service.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	setAuthCookie(c, resp.Token)

	return c.JSON(http.StatusOK, authResponse{
		Token: resp.Token,
		User:  toUserResponse(resp.User),
	})
}

// Login authenticates the admin and returns a JWT token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}

	resp, err := h.service.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	setAuthCookie(c, resp.Token)

	return c.JSON(http.StatusOK, authResponse{
		Token: resp.Token,
		User:  toUserResponse(resp.User),
	})
}

// GetCurrentUser returns the authenticated admin's info.
func (h *AuthHandler) GetCurrentUser(c echo.Context) error {
	user, err := h.service.GetCurrentUser(c.Request().Context())
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		}
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to get user"})
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout clears the authentication cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearAuthCookie(c)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) handleAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUserExists):
		return c.JSON(http.StatusConflict, errorResponse{Error: "admin account already exists"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "user not found"})
	case errors.Is(err, service.ErrInvalidPassword):
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrEmailRequired),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func toUserResponse(user *service.User) *userResponse {
	if user == nil {
		return nil
	}
	return &userResponse{
		Username: user.Username,
		Email:    user.Email,
	}
}

// setAuthCookie sets the authentication cookie for browser requests.
func setAuthCookie(c echo.Context, token string) {
	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   7 * 24 * 60 * 60, // matches the JWT expiry
	}
	c.SetCookie(cookie)
}

func clearAuthCookie(c echo.Context) {
	cookie := &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	}
	c.SetCookie(cookie)
}
