package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/incuna/user-management/internal/pkg/metrics"
)

// Metrics records request duration by method, route and status code.
// Errors are rendered here so the recorded code is the one the client got.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
