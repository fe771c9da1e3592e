package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds each request by timeout. The handler runs on the
// request goroutine with the bounded context; if the deadline passed and
// nothing was written yet, the response becomes a 504. Requests whose path
// starts with one of exempt (e.g. "/health") keep their original context.
func RequestTimeout(timeout time.Duration, exempt ...string) echo.MiddlewareFunc {
	isExempt := func(path string) bool {
		for _, prefix := range exempt {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
		return false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if isExempt(req.URL.Path) {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if c.Response().Committed || !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return err
			}
			return c.JSON(http.StatusGatewayTimeout, timeoutBody)
		}
	}
}

var timeoutBody = map[string]string{
	"message": "request processing exceeded the allowed time limit",
}
