package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"infocollect/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func writeServiceError(c echo.Context, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, validationErrorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
	case errors.Is(err, service.ErrInvalid):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "resource not found"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: "conflict"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// Error returns a JSON error response with the given status and message
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}
