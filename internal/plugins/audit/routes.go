package audit

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the audit feed on the API group. The group carries
// the API guard, so every route here requires a valid token.
func RegisterRoutes(api *echo.Group, h *Handler) {
	api.GET("/audit", h.Recent)
	api.GET("/audit/:type/:id", h.History)
}
