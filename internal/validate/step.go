package validate

import (
	"log/slog"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/flash"
	"github.com/keyxmakerx/roster/internal/pipeline"
)

// Step returns a pipeline step that validates the submitted form against
// rules. Normalized values are stored in the State for later steps.
//
// On failure it sets the skip flag, queues one error flash with every
// message joined by " and ", and points the redirect back at formPath. The
// run continues either way; mutating steps honour the skip flag.
func Step(rules Ruleset, formPath string) pipeline.Step {
	return StepTo(rules, func(echo.Context) string { return formPath })
}

// StepTo is Step for forms whose path depends on the request, such as
// /users/:id/edit.
func StepTo(rules Ruleset, formPath func(c echo.Context) string) pipeline.Step {
	return func(c echo.Context, st *pipeline.State) pipeline.Outcome {
		params, err := c.FormParams()
		if err != nil {
			return pipeline.ShortCircuit(apperror.NewBadRequest("invalid form submission"))
		}

		values := make(url.Values, len(params))
		for k, v := range params {
			values[k] = append([]string(nil), v...)
		}

		result := Validate(values, rules)
		st.Form = values

		if !result.Valid() {
			slog.Debug("form validation failed",
				slog.String("path", c.Request().URL.Path),
				slog.Int("errors", len(result)),
			)
			st.Skip = true
			st.AddFlash(flash.LevelError, result.Joined())
			st.Redirect = formPath(c)
		}
		return pipeline.Continue()
	}
}
