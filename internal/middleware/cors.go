package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the API from a
	// browser. "*" allows any origin.
	AllowedOrigins []string

	// AllowHeaders are the request headers a preflight may ask for, in
	// addition to Content-Type.
	AllowHeaders []string
}

// CORS answers cross-origin requests to the JSON API. It is mounted on the
// /api group only; the HTML pages are same-origin. Credentials are never
// allowed: API clients authenticate with tokens, not cookies.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}
	if allowAll {
		slog.Warn("CORS allows every origin for the API")
	}

	allowHeaders := strings.Join(append([]string{echo.HeaderContentType}, cfg.AllowHeaders...), ", ")
	allowMethods := strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" || !(allowAll || originSet[origin]) {
				return next(c)
			}

			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			if req.Method == http.MethodOptions {
				h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
				h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
				h.Set(echo.HeaderAccessControlMaxAge, "3600")
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
