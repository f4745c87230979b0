package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/service"
)

// requestTimeout bounds every store round trip made for a request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// ok writes {success:true} merged with extra.
func ok(c echo.Context, status int, extra echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	return c.JSON(status, body)
}

// fail writes {success:false, error} with the status matching err.
// Persistence failures are reported generically; they are already
// logged by the service layer.
func fail(c echo.Context, err error) error {
	status, msg := http.StatusInternalServerError, "something went wrong, please try again"
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrForbiddenSelfDemotion),
		errors.Is(err, service.ErrForbiddenSelfDeletion):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrOrderPersistence):
		msg = err.Error()
	}
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

func badBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid body"})
}
