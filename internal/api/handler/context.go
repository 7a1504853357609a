package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/api/middleware"
	"github.com/incuna/user-management/internal/core/domain"
)

// Capability checks. Each handler calls the one it needs before touching a
// service.

func requireUser(c echo.Context) (*domain.User, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	return u, nil
}

func requireStaff(c echo.Context) (*domain.User, error) {
	u, err := requireUser(c)
	if err != nil {
		return nil, err
	}
	if !u.IsStaff {
		return nil, domain.ErrPermissionDenied
	}
	return u, nil
}

func requireAnonymous(c echo.Context) error {
	if middleware.CurrentUser(c) != nil {
		return domain.ErrPermissionDenied
	}
	return nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	return c.Validate(req)
}
