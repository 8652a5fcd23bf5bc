package pipeline

import (
	"net/url"

	"github.com/labstack/echo/v4"
)

// RedirectView commits a redirect when a previous step left a target in
// the State, and otherwise continues so a later view step can render. It
// follows every mutating step (create, update, delete, login, logout).
func RedirectView(_ echo.Context, st *State) Outcome {
	if st.Redirect != "" {
		return Commit(Redirect(st.Redirect))
	}
	return Continue()
}

// SetReferer records the page the request came from as the pending
// redirect target. Referers from other hosts are ignored.
func SetReferer(c echo.Context, st *State) Outcome {
	ref := c.Request().Referer()
	if ref == "" {
		return Continue()
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != c.Request().Host) {
		return Continue()
	}
	st.Redirect = u.RequestURI()
	return Continue()
}
