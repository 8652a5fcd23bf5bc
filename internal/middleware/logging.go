// Package middleware provides the HTTP middleware and render helpers shared
// by every plugin. Global middleware is registered in internal/app.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// quietPaths are polled by orchestrators and not worth a log line.
var quietPaths = map[string]bool{
	"/healthz": true,
}

// RequestLogger logs every request once it completes: method, path, status,
// latency and client IP. 4xx responses log at warn, 5xx at error.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			req := c.Request()
			if quietPaths[req.URL.Path] {
				return err
			}
			// Errors are written by the HTTP error handler after we return;
			// let it run first so the logged status is the one sent.
			if err != nil {
				c.Error(err)
				err = nil
			}
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}

			level := slog.LevelInfo
			switch {
			case res.Status >= 500:
				level = slog.LevelError
			case res.Status >= 400:
				level = slog.LevelWarn
			}
			slog.LogAttrs(req.Context(), level, "request", attrs...)

			return err
		}
	}
}
