package middleware

import (
	"github.com/labstack/echo/v4"
)

// apiHeaders are set on every response. The API serves JSON only and the
// schedule changes under the client, so nothing is framed or cached.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "no-referrer"},
	{"Cache-Control", "no-store"},
}

const hstsValue = "max-age=31536000; includeSubDomains"

// SecurityHeaders sets apiHeaders before the handler runs, so error
// responses carry them too. hsts adds Strict-Transport-Security and is
// only meaningful when the server terminates TLS.
func SecurityHeaders(hsts bool) echo.MiddlewareFunc {
	headers := apiHeaders
	if hsts {
		headers = append(headers[:len(headers):len(headers)], [2]string{"Strict-Transport-Security", hstsValue})
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, kv := range headers {
				h.Set(kv[0], kv[1])
			}
			return next(c)
		}
	}
}
