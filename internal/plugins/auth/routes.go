package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/middleware"
	"github.com/keyxmakerx/roster/internal/pipeline"
)

// RegisterRoutes sets up the session routes under /users and the API login.
// They must be registered before the users CRUD routes so /users/login is
// not taken for a user ID.
//
// Credential endpoints are rate-limited to slow brute-force and credential
// stuffing: 10 attempts per IP per minute.
func RegisterRoutes(e *echo.Echo, engine *pipeline.Engine, h *Handler) {
	limit := middleware.RateLimit(10, time.Minute)

	e.GET("/users/login", engine.Chain(pipeline.View(http.StatusOK, LoginView)).Handler())
	e.POST("/users/authenticate", engine.Chain(h.Authenticate, pipeline.RedirectView).Handler(), limit)
	// Logging out returns to the page the link was clicked on, or "/".
	e.GET("/users/logout", engine.Chain(h.Logout, pipeline.SetReferer, pipeline.RedirectView).Handler())

	e.POST("/api/login", engine.Chain(h.APILogin).Handler(), limit)
}
