package pipeline

import (
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/flash"
)

// stateContextKey is the Echo context key under which the running
// pipeline's State is stored.
const stateContextKey = "pipeline_state"

// Status is where a pipeline run currently stands.
type Status int

const (
	// StatusPending means no step has run yet.
	StatusPending Status = iota

	// StatusContinuing means at least one step ran and asked for the next.
	StatusContinuing

	// StatusShortCircuited means a step aborted with an error. Terminal.
	StatusShortCircuited

	// StatusCommitted means a step rendered or redirected. Terminal.
	StatusCommitted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusContinuing:
		return "continuing"
	case StatusShortCircuited:
		return "short_circuited"
	case StatusCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// State is the per-request scratch record every step of one pipeline run
// reads and writes. It is created by the driver at request start and owned
// by that request alone.
type State struct {
	// Redirect is the pending redirect target. RedirectView commits it.
	Redirect string

	// Flashes are the pending notices, in the order they were added.
	Flashes []flash.Message

	// Skip is set by the validator when the submission failed; mutating
	// steps check it and pass through untouched.
	Skip bool

	// Entity is whatever the current operation fetched (a user, a list of
	// subscribers, ...) for a later render step.
	Entity any

	// Form holds normalized form values once the validator has run.
	Form url.Values

	status  Status
	flashes FlashStore
}

func newState(store FlashStore) *State {
	return &State{status: StatusPending, flashes: store}
}

// Status returns the run's lifecycle status.
func (s *State) Status() Status {
	return s.status
}

// AddFlash queues a notice for the next rendered page.
func (s *State) AddFlash(level flash.Level, text string) {
	s.Flashes = append(s.Flashes, flash.Message{Level: level, Text: text})
}

// FormValue returns the normalized value for key if the validator stored
// one, otherwise the raw submitted value.
func (s *State) FormValue(c echo.Context, key string) string {
	if s.Form != nil {
		if vals, ok := s.Form[key]; ok && len(vals) > 0 {
			return vals[0]
		}
	}
	return c.FormValue(key)
}

// clear drops everything the commit consumed.
func (s *State) clear() {
	s.Redirect = ""
	s.Flashes = nil
	s.Skip = false
}

// GetState returns the State of the pipeline running for this request, or
// nil outside a pipeline.
func GetState(c echo.Context) *State {
	st, _ := c.Get(stateContextKey).(*State)
	return st
}
