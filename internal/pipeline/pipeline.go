// Package pipeline runs a route as an ordered list of steps sharing one
// per-request State. Each step returns an Outcome: Continue to the next
// step, ShortCircuit with an error (only the error terminal runs after it),
// or Commit an Action that writes the response and ends the run.
//
// A typical mutating route is:
//
//	engine.Chain(validator, create, pipeline.RedirectView, renderForm)
//
// where create records a redirect target and flash in the State, and
// RedirectView commits the redirect if one is pending.
package pipeline

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/flash"
)

// Step is one unit of work in a pipeline.
type Step func(c echo.Context, st *State) Outcome

// Action writes the response for a committing step.
type Action func(c echo.Context, st *State) error

// ErrorHandler is the terminal that runs after a short-circuit.
type ErrorHandler func(c echo.Context, st *State, err error) error

// FlashStore carries flashes across a redirect to the next request.
type FlashStore interface {
	Push(c echo.Context, msgs []flash.Message) error
	Pop(c echo.Context) ([]flash.Message, error)
}

// Kind discriminates Outcomes.
type Kind int

const (
	KindContinue Kind = iota
	KindShortCircuit
	KindCommit
)

// Outcome is what a step decided.
type Outcome struct {
	kind   Kind
	err    error
	action Action
}

// Kind returns which of the three outcomes this is.
func (o Outcome) Kind() Kind { return o.kind }

// Err returns the short-circuit error, if any.
func (o Outcome) Err() error { return o.err }

// Continue proceeds to the next step.
func Continue() Outcome {
	return Outcome{kind: KindContinue}
}

// ShortCircuit aborts the run with err. A nil err is replaced with an
// internal error so the request never silently succeeds.
func ShortCircuit(err error) Outcome {
	if err == nil {
		err = apperror.NewInternal(errors.New("step short-circuited without an error"))
	}
	return Outcome{kind: KindShortCircuit, err: err}
}

// Commit ends the run by executing action. A nil action is turned into
// an internal-error short-circuit.
func Commit(action Action) Outcome {
	if action == nil {
		return ShortCircuit(apperror.NewInternal(errors.New("step committed without an action")))
	}
	return Outcome{kind: KindCommit, action: action}
}

// Engine holds the dependencies shared by every pipeline in the app.
type Engine struct {
	flashes FlashStore
	onError ErrorHandler
}

// NewEngine creates an engine. flashes may be nil, in which case flashes
// only reach a render within the same request.
func NewEngine(flashes FlashStore) *Engine {
	return &Engine{flashes: flashes, onError: ReturnError}
}

// WithErrorHandler returns a copy of the engine using h as the error
// terminal for the pipelines it builds.
func (e *Engine) WithErrorHandler(h ErrorHandler) *Engine {
	cp := *e
	cp.onError = h
	return &cp
}

// Pipeline is an ordered, immutable list of steps.
type Pipeline struct {
	steps   []Step
	flashes FlashStore
	onError ErrorHandler
}

// Chain builds a pipeline from steps, run strictly in the given order.
func (e *Engine) Chain(steps ...Step) *Pipeline {
	return &Pipeline{
		steps:   append([]Step(nil), steps...),
		flashes: e.flashes,
		onError: e.onError,
	}
}

// Handler adapts the pipeline to an Echo handler.
func (p *Pipeline) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		_, err := p.Run(c)
		return err
	}
}

// Middleware runs steps ahead of an ordinary Echo handler. When every step
// continues, next runs; a short-circuit or commit ends the request there.
func (e *Engine) Middleware(steps ...Step) echo.MiddlewareFunc {
	p := e.Chain(steps...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			st, err := p.Run(c)
			if err != nil {
				return err
			}
			switch st.Status() {
			case StatusShortCircuited, StatusCommitted:
				return nil
			}
			return next(c)
		}
	}
}

// Run executes the pipeline for one request and returns the final State.
// A run that reaches the end without committing falls through to a no-op.
func (p *Pipeline) Run(c echo.Context) (*State, error) {
	st := newState(p.flashes)
	c.Set(stateContextKey, st)

	for _, step := range p.steps {
		out := step(c, st)

		switch out.kind {
		case KindContinue:
			st.status = StatusContinuing

		case KindShortCircuit:
			st.status = StatusShortCircuited
			slog.Debug("pipeline short-circuited",
				slog.String("path", c.Request().URL.Path),
				slog.Any("error", out.err),
			)
			return st, p.onError(c, st, out.err)

		case KindCommit:
			st.status = StatusCommitted
			err := out.action(c, st)
			st.clear()
			return st, err
		}
	}

	return st, nil
}

// ReturnError is the default error terminal: it hands the error to Echo's
// HTTPErrorHandler.
func ReturnError(_ echo.Context, _ *State, err error) error {
	return err
}
