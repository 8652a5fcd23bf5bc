// Package pages holds the views that belong to no plugin.
package pages

import (
	"context"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/templates/layouts"
)

// Landing is the home page: where to go next, plus a quick subscribe form.
func Landing(_ echo.Context, _ *pipeline.State) templ.Component {
	return layouts.Page("Welcome", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		if layouts.IsAuthenticated(ctx) {
			w.Raw(`<p>Welcome back, `)
			w.Text(layouts.GetUserName(ctx))
			w.Raw(`.</p>`)
		} else {
			w.Raw(`<p><a href="/users/new">Create an account</a> or <a href="/users/login">log in</a>.</p>`)
		}
		w.Raw(`<ul><li><a href="/users">Browse users</a></li>`,
			`<li><a href="/subscribers">Browse subscribers</a></li></ul>`)

		w.Raw(`<h2>Join the mailing list</h2><form method="POST" action="/subscribers/create">`)
		layouts.CSRFField(ctx, w)
		w.Raw(`<label>Name <input type="text" name="name"></label>`,
			`<label>Email <input type="email" name="email"></label>`,
			`<label>Zip code <input type="text" name="zipCode" inputmode="numeric" maxlength="5"></label>`,
			`<button type="submit">Subscribe</button></form>`)
	}))
}
