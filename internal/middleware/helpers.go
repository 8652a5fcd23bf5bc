package middleware

import (
	"context"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// LayoutInjector copies layout-relevant data from the Echo context (populated
// by the session loader and CSRF middleware) into Go's context.Context so
// Templ components can read it. Registered once at startup in app/routes.go.
//
// The callback keeps this package from importing the auth plugin.
var LayoutInjector func(echo.Context, context.Context) context.Context

// IsJSON returns true if the client asked for JSON, either with
// ?format=json or an Accept header.
func IsJSON(c echo.Context) bool {
	if c.QueryParam("format") == "json" {
		return true
	}
	return c.Request().Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON
}

// Render writes a Templ component to the response with the given status code.
// Before rendering, it runs the LayoutInjector (if registered).
func Render(c echo.Context, statusCode int, component templ.Component) error {
	ctx := c.Request().Context()

	if LayoutInjector != nil {
		ctx = LayoutInjector(c, ctx)
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(statusCode)
	return component.Render(ctx, c.Response().Writer)
}
