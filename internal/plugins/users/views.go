package users

import (
	"context"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/plugins/auth"
	"github.com/keyxmakerx/roster/internal/templates/layouts"
)

// indexPage lists the users loaded by Index.
func indexPage(_ echo.Context, st *pipeline.State) templ.Component {
	users, _ := st.Entity.([]auth.User)
	return layouts.Page("All Users", layouts.Component(func(_ context.Context, w *layouts.Writer) {
		w.Raw(`<p><a href="/users/new">Create a new user</a></p>`)
		if len(users) == 0 {
			w.Raw(`<p>No users yet.</p>`)
			return
		}
		w.Raw(`<table><thead><tr><th>Name</th><th>Username</th><th>Email</th></tr></thead><tbody>`)
		for _, u := range users {
			w.Raw(`<tr><td><a href="`)
			w.Text(userPath(u.ID))
			w.Raw(`">`)
			w.Text(u.FullName())
			w.Raw(`</a></td><td>`)
			w.Text(u.Username)
			w.Raw(`</td><td>`)
			w.Text(u.Email)
			w.Raw(`</td></tr>`)
		}
		w.Raw(`</tbody></table>`)
	}))
}

// newPage renders the sign-up form.
func newPage(_ echo.Context, _ *pipeline.State) templ.Component {
	return layouts.Page("New User", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<form method="POST" action="/users/create">`)
		layouts.CSRFField(ctx, w)
		userFields(w, &auth.User{})
		w.Raw(`<label>Password <input type="password" name="password" autocomplete="new-password"></label>`,
			`<button type="submit">Sign up</button></form>`)
	}))
}

// showPage renders the user loaded by Show. The API token is only shown to
// the user it belongs to.
func showPage(c echo.Context, st *pipeline.State) templ.Component {
	user, _ := st.Entity.(*auth.User)
	owner := user != nil && user.APIToken != "" && auth.GetUserID(c) == user.ID
	return layouts.Page("User Details", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		if user == nil {
			return
		}
		w.Raw(`<dl><dt>Name</dt><dd>`)
		w.Text(user.FullName())
		w.Raw(`</dd><dt>Username</dt><dd>`)
		w.Text(user.Username)
		w.Raw(`</dd><dt>Email</dt><dd>`)
		w.Text(user.Email)
		w.Raw(`</dd><dt>Member since</dt><dd>`)
		w.Text(user.CreatedAt.Format("January 2, 2006"))
		if owner {
			w.Raw(`</dd><dt>API token</dt><dd><code id="api-token">`)
			w.Text(user.APIToken)
			w.Raw(`</code>`)
		}
		w.Raw(`</dd></dl><p><a href="`)
		w.Text(userPath(user.ID) + "/edit")
		w.Raw(`">Edit</a></p><form method="POST" action="`)
		w.Text(userPath(user.ID) + "/delete")
		w.Raw(`">`)
		layouts.CSRFField(ctx, w)
		layouts.MethodField(w, "DELETE")
		w.Raw(`<button type="submit">Delete</button></form>`)
	}))
}

// editPage renders the edit form for the user loaded by Show.
func editPage(_ echo.Context, st *pipeline.State) templ.Component {
	user, _ := st.Entity.(*auth.User)
	return layouts.Page("Edit User", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		if user == nil {
			return
		}
		w.Raw(`<form method="POST" action="`)
		w.Text(userPath(user.ID) + "/update")
		w.Raw(`">`)
		layouts.CSRFField(ctx, w)
		layouts.MethodField(w, "PUT")
		userFields(w, user)
		w.Raw(`<label>New password <input type="password" name="password" autocomplete="new-password"></label>`,
			`<button type="submit">Save</button></form>`)
	}))
}

func userFields(w *layouts.Writer, u *auth.User) {
	field := func(label, name, typ, value string) {
		w.Raw(`<label>`)
		w.Text(label)
		w.Raw(` <input type="`, typ, `" name="`, name, `" value="`)
		w.Text(value)
		w.Raw(`"></label>`)
	}
	field("First name", "first", "text", u.FirstName)
	field("Last name", "last", "text", u.LastName)
	field("Username", "username", "text", u.Username)
	field("Email", "email", "email", u.Email)
}
