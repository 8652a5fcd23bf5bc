package layouts

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// Writer accumulates markup for hand-written components. The first write
// error sticks and is reported by Err.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup verbatim.
func (w *Writer) Raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

// Text writes s HTML-escaped.
func (w *Writer) Text(s string) {
	w.Raw(templ.EscapeString(s))
}

// Render writes a nested component.
func (w *Writer) Render(ctx context.Context, c templ.Component) {
	if w.err != nil || c == nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

// Component adapts a write function to templ.Component.
func Component(fn func(ctx context.Context, w *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := NewWriter(out)
		fn(ctx, w)
		return w.Err()
	})
}

// CSRFField writes the hidden CSRF input every session form carries.
func CSRFField(ctx context.Context, w *Writer) {
	w.Raw(`<input type="hidden" name="csrf_token" value="`)
	w.Text(GetCSRFToken(ctx))
	w.Raw(`">`)
}

// MethodField writes the _method override for PUT and DELETE forms.
func MethodField(w *Writer, method string) {
	w.Raw(`<input type="hidden" name="_method" value="`)
	w.Text(method)
	w.Raw(`">`)
}

// navLinks are the top-level sections, in display order.
var navLinks = []struct{ Path, Label string }{
	{"/", "Home"},
	{"/users", "Users"},
	{"/subscribers", "Subscribers"},
}

// Page wraps body in the site chrome: navigation, session status, and the
// flash messages queued for this render.
func Page(title string, body templ.Component) templ.Component {
	return Component(func(ctx context.Context, w *Writer) {
		w.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		w.Text(title)
		w.Raw(` | Roster</title></head><body><header><nav>`)

		active := GetActivePath(ctx)
		for _, link := range navLinks {
			w.Raw(`<a href="`, link.Path, `"`)
			if link.Path == active {
				w.Raw(` class="active"`)
			}
			w.Raw(`>`)
			w.Text(link.Label)
			w.Raw(`</a> `)
		}

		if IsAuthenticated(ctx) {
			w.Raw(`<span class="session">Signed in as `)
			w.Text(GetUserName(ctx))
			w.Raw(`</span> <a href="/users/logout">Log out</a>`)
		} else {
			w.Raw(`<a href="/users/login">Log in</a>`)
		}
		w.Raw(`</nav></header>`)

		for _, m := range GetFlashes(ctx) {
			w.Raw(`<div class="flash flash-`)
			w.Text(string(m.Level))
			w.Raw(`">`)
			w.Text(m.Text)
			w.Raw(`</div>`)
		}

		w.Raw(`<main><h1>`)
		w.Text(title)
		w.Raw(`</h1>`)
		w.Render(ctx, body)
		w.Raw(`</main></body></html>`)
	})
}

// ErrorPage renders a standalone error message with its status code.
func ErrorPage(code int, message string) templ.Component {
	return Page("Error", Component(func(_ context.Context, w *Writer) {
		w.Raw(`<p class="error-code">`)
		w.Text(strconv.Itoa(code))
		w.Raw(`</p><p>`)
		w.Text(message)
		w.Raw(`</p><p><a href="/">Back to home</a></p>`)
	}))
}
