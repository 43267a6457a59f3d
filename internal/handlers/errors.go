package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/hermes/internal/pubsub"
)

func errorJSON(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Code: code, Message: message})
}

// busError maps engine and wait errors to HTTP responses.
func busError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, pubsub.ErrWaitTimeout):
		return errorJSON(c, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, pubsub.ErrWaitFailed):
		return errorJSON(c, http.StatusBadGateway, "failed", err.Error())
	case errors.Is(err, pubsub.ErrClosed), errors.Is(err, pubsub.ErrNotConnected):
		return errorJSON(c, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		return errorJSON(c, http.StatusInternalServerError, "internal", err.Error())
	}
}
