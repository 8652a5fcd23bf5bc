package subscribers

import (
	"context"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/templates/layouts"
)

func indexPage(_ echo.Context, st *pipeline.State) templ.Component {
	subs, _ := st.Entity.([]Subscriber)
	return layouts.Page("Subscribers", layouts.Component(func(_ context.Context, w *layouts.Writer) {
		w.Raw(`<p><a href="/subscribers/new">Subscribe</a></p>`)
		if len(subs) == 0 {
			w.Raw(`<p>No subscribers yet.</p>`)
			return
		}
		w.Raw(`<table><thead><tr><th>Name</th><th>Email</th><th>Zip code</th></tr></thead><tbody>`)
		for _, s := range subs {
			w.Raw(`<tr><td><a href="`)
			w.Text(subscriberPath(s.ID))
			w.Raw(`">`)
			w.Text(s.Name)
			w.Raw(`</a></td><td>`)
			w.Text(s.Email)
			w.Raw(`</td><td>`)
			w.Text(s.ZipCode)
			w.Raw(`</td></tr>`)
		}
		w.Raw(`</tbody></table>`)
	}))
}

func newPage(_ echo.Context, _ *pipeline.State) templ.Component {
	return layouts.Page("Subscribe", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		w.Raw(`<form method="POST" action="/subscribers/create">`)
		layouts.CSRFField(ctx, w)
		subscriberFields(w, &Subscriber{})
		w.Raw(`<button type="submit">Subscribe</button></form>`)
	}))
}

func showPage(_ echo.Context, st *pipeline.State) templ.Component {
	sub, _ := st.Entity.(*Subscriber)
	return layouts.Page("Subscriber Details", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		if sub == nil {
			return
		}
		w.Raw(`<dl><dt>Name</dt><dd>`)
		w.Text(sub.Name)
		w.Raw(`</dd><dt>Email</dt><dd>`)
		w.Text(sub.Email)
		w.Raw(`</dd><dt>Zip code</dt><dd>`)
		w.Text(sub.ZipCode)
		w.Raw(`</dd></dl><p><a href="`)
		w.Text(subscriberPath(sub.ID) + "/edit")
		w.Raw(`">Edit</a></p><form method="POST" action="`)
		w.Text(subscriberPath(sub.ID) + "/delete")
		w.Raw(`">`)
		layouts.CSRFField(ctx, w)
		layouts.MethodField(w, "DELETE")
		w.Raw(`<button type="submit">Delete</button></form>`)
	}))
}

func editPage(_ echo.Context, st *pipeline.State) templ.Component {
	sub, _ := st.Entity.(*Subscriber)
	return layouts.Page("Edit Subscriber", layouts.Component(func(ctx context.Context, w *layouts.Writer) {
		if sub == nil {
			return
		}
		w.Raw(`<form method="POST" action="`)
		w.Text(subscriberPath(sub.ID) + "/update")
		w.Raw(`">`)
		layouts.CSRFField(ctx, w)
		layouts.MethodField(w, "PUT")
		subscriberFields(w, sub)
		w.Raw(`<button type="submit">Save</button></form>`)
	}))
}

func subscriberFields(w *layouts.Writer, s *Subscriber) {
	field := func(label, name, typ, value string) {
		w.Raw(`<label>`)
		w.Text(label)
		w.Raw(` <input type="`, typ, `" name="`, name, `" value="`)
		w.Text(value)
		w.Raw(`"></label>`)
	}
	field("Name", "name", "text", s.Name)
	field("Email", "email", "email", s.Email)
	field("Zip code", "zipCode", "text", s.ZipCode)
}
