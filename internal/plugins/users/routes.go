package users

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/plugins/auth"
	"github.com/keyxmakerx/roster/internal/validate"
)

// RegisterRoutes sets up the users CRUD routes. Listing, viewing and
// signing up are public; editing and deleting need a session.
// auth.RegisterRoutes must run first so /users/login is matched literally.
func RegisterRoutes(e *echo.Echo, engine *pipeline.Engine, h *Handler) {
	g := e.Group("/users")

	g.GET("", engine.Chain(h.Index, h.IndexView).Handler())
	g.GET("/new", engine.Chain(pipeline.View(http.StatusOK, newPage)).Handler())
	g.POST("/create", engine.Chain(
		validate.Step(signupRules, newPath),
		h.Create,
		pipeline.RedirectView,
	).Handler())

	g.GET("/:id", engine.Chain(h.Show, pipeline.View(http.StatusOK, showPage)).Handler())
	g.GET("/:id/edit", engine.Chain(
		auth.RequireSession,
		h.Show,
		pipeline.View(http.StatusOK, editPage),
	).Handler())
	g.PUT("/:id/update", engine.Chain(
		auth.RequireSession,
		validateEdit(),
		h.Update,
		pipeline.RedirectView,
	).Handler())
	g.DELETE("/:id/delete", engine.Chain(
		auth.RequireSession,
		h.Delete,
		pipeline.RedirectView,
	).Handler())
}

// RegisterAPIRoutes mounts the JSON listing on the guarded API group.
func RegisterAPIRoutes(api *echo.Group, engine *pipeline.Engine, h *Handler) {
	api.GET("/users", engine.Chain(h.Index, h.APIIndex).Handler())
}

func validateEdit() pipeline.Step {
	return validate.StepTo(editRules, editPath)
}
