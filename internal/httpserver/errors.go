package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/e"
	"github.com/Skotchmaster/marketplace/pkg/lock"
)

type errMapping struct {
	target error
	status int
	code   int
}

var errMappings = []errMapping{
	{service.ErrValidation, http.StatusBadRequest, e.INVALID_PARAMS},
	{service.ErrUnauthorized, http.StatusUnauthorized, e.ERROR_AUTH},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, e.ERROR_AUTH_TOKEN_INVALID},
	{service.ErrForbidden, http.StatusForbidden, e.ERROR_FORBIDDEN},
	{service.ErrNotFound, http.StatusNotFound, e.ERROR_NOT_FOUND},
	{service.ErrConflict, http.StatusConflict, e.ERROR_CONFLICT},
	{service.ErrInvalidState, http.StatusConflict, e.ERROR_INVALID_STATE},
	{service.ErrOutOfStock, http.StatusConflict, e.ERROR_STOCK_NOT_ENOUGH},
	{service.ErrInsufficientPoints, http.StatusConflict, e.ERROR_POINTS_NOT_ENOUGH},
	{service.ErrPaymentFailed, http.StatusPaymentRequired, e.ERROR_PAYMENT_FAILED},
	{lock.ErrNotAcquired, http.StatusConflict, e.ERROR_LOCK_NOT_ACQUIRED},
	{service.ErrUpstream, http.StatusBadGateway, e.ERROR_UPSTREAM},
}

// classify maps a service error onto an HTTP status and a response code.
func classify(err error) (int, int) {
	for _, m := range errMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, e.ERROR
}

// fail logs the failure under event and turns it into an echo HTTP error.
// Client errors carry the error text; server errors only the generic message.
func fail(l *slog.Logger, event string, err error) error {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
		return echo.NewHTTPError(status, e.NewBody(code, ""))
	}
	l.Warn(event, "status", status, "reason", e.GetMsg(code), "error", err)
	return echo.NewHTTPError(status, e.NewBody(code, err.Error()))
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, e.NewBody(e.INVALID_PARAMS, reason))
}
