package handler

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/pkg/metrics"
)

// observe counts one account action by the outcome its error maps to.
func observe(action string, errp *error) {
	metrics.AccountActionsTotal.WithLabelValues(action, outcome(*errp)).Inc()
}

func outcome(err error) string {
	var ve *domain.ValidationError
	var he *echo.HTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve), errors.Is(err, domain.ErrUserExists):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPermissionDenied):
		return "forbidden"
	case errors.Is(err, domain.ErrAuthenticationRequired),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInactiveAccount):
		return "unauthorized"
	case errors.As(err, &he) && he.Code < 500:
		return "invalid"
	}
	return "error"
}
