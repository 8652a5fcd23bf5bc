package auth

import (
	"context"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/templates/layouts"
)

// LoginView renders the login form (GET /users/login).
func LoginView(_ echo.Context, _ *pipeline.State) templ.Component {
	return layouts.Page("Login", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<form method="POST" action="/users/authenticate">`)
		layouts.CSRFField(ctx, w)
		w.Raw(`<label>Username <input type="text" name="username" autocomplete="username" required></label>`,
			`<label>Password <input type="password" name="password" autocomplete="current-password" required></label>`,
			`<button type="submit">Log in</button></form>`,
			`<p>No account yet? <a href="/users/new">Sign up</a>.</p>`)
	}))
}
