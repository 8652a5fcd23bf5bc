package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/flash"
	"github.com/keyxmakerx/roster/internal/middleware"
	"github.com/keyxmakerx/roster/internal/templates/layouts"
)

// ViewFunc builds the component to render from the run's State.
type ViewFunc func(c echo.Context, st *State) templ.Component

// Redirect returns an action that saves the pending flashes for the next
// request and issues a 303 to path.
func Redirect(path string) Action {
	return func(c echo.Context, st *State) error {
		if st.flashes != nil && len(st.Flashes) > 0 {
			if err := st.flashes.Push(c, st.Flashes); err != nil {
				// The redirect still happens; the notice is lost.
				slog.Warn("failed to persist flash messages",
					slog.String("path", c.Request().URL.Path),
					slog.Any("error", err),
				)
			}
		}
		return c.Redirect(http.StatusSeeOther, path)
	}
}

// Render returns an action that renders the component built by view, with
// any flashes carried over from the previous request followed by the ones
// queued during this run.
func Render(status int, view ViewFunc) Action {
	return func(c echo.Context, st *State) error {
		msgs := pendingFlashes(c, st)

		req := c.Request()
		ctx := layouts.SetFlashes(req.Context(), msgs)
		ctx = layouts.SetActivePath(ctx, req.URL.Path)
		c.SetRequest(req.WithContext(ctx))

		return middleware.Render(c, status, view(c, st))
	}
}

// JSON returns an action that writes v as JSON.
func JSON(status int, v any) Action {
	return func(c echo.Context, _ *State) error {
		return c.JSON(status, v)
	}
}

// View is a step that commits a render. Use it as the last step of a
// read-only route, or after RedirectView on a mutating one.
func View(status int, view ViewFunc) Step {
	return func(_ echo.Context, _ *State) Outcome {
		return Commit(Render(status, view))
	}
}

func pendingFlashes(c echo.Context, st *State) []flash.Message {
	var msgs []flash.Message
	if st.flashes != nil {
		stored, err := st.flashes.Pop(c)
		if err != nil {
			slog.Warn("failed to read flash messages", slog.Any("error", err))
		}
		msgs = append(msgs, stored...)
	}
	return append(msgs, st.Flashes...)
}
