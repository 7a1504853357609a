package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/core/domain"
	"github.com/incuna/user-management/internal/core/ports"
)

// UserContextKey holds the authenticated *domain.User in the echo context.
const UserContextKey = "user"

// Authenticate resolves a bearer token to the current user and stores it
// under UserContextKey. Requests without an Authorization header pass
// through anonymously; handlers decide whether that is acceptable.
func Authenticate(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return unauthorized(c, "invalid authorization header")
			}

			user, err := auth.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrInactiveAccount) {
					return unauthorized(c, "invalid token")
				}
				return err
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c echo.Context) *domain.User {
	u, _ := c.Get(UserContextKey).(*domain.User)
	return u
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
