package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/flash"
	"github.com/keyxmakerx/roster/internal/templates/layouts"
)

// --- Test Helpers ---

// memoryFlashStore is a single-visitor in-memory FlashStore.
type memoryFlashStore struct {
	pending []flash.Message
	pushErr error
}

func (m *memoryFlashStore) Push(_ echo.Context, msgs []flash.Message) error {
	if m.pushErr != nil {
		return m.pushErr
	}
	m.pending = append(m.pending, msgs...)
	return nil
}

func (m *memoryFlashStore) Pop(_ echo.Context) ([]flash.Message, error) {
	msgs := m.pending
	m.pending = nil
	return msgs, nil
}

func newTestContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// recorder returns a step that appends name to log and continues.
func recorder(log *[]string, name string) Step {
	return func(_ echo.Context, _ *State) Outcome {
		*log = append(*log, name)
		return Continue()
	}
}

// flashesView renders every flash as "level:text;".
func flashesView(_ echo.Context, _ *State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, m := range layouts.GetFlashes(ctx) {
			if _, err := fmt.Fprintf(w, "%s:%s;", m.Level, m.Text); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- Driver Tests ---

func TestRun_StepsExecuteInOrder(t *testing.T) {
	var log []string
	p := NewEngine(nil).Chain(
		recorder(&log, "a"),
		recorder(&log, "b"),
		recorder(&log, "c"),
	)

	c, _ := newTestContext(http.MethodGet, "/")
	st, err := p.Run(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(log, ",") != "a,b,c" {
		t.Errorf("expected a,b,c, got %v", log)
	}
	if st.Status() != StatusContinuing {
		t.Errorf("expected fall-through status continuing, got %s", st.Status())
	}
}

func TestRun_ShortCircuitSkipsRemainingSteps(t *testing.T) {
	var log []string
	boom := apperror.NewNotFound("user not found")

	var handled error
	engine := NewEngine(nil).WithErrorHandler(func(_ echo.Context, _ *State, err error) error {
		handled = err
		return err
	})
	p := engine.Chain(
		recorder(&log, "before"),
		func(_ echo.Context, _ *State) Outcome { return ShortCircuit(boom) },
		recorder(&log, "after"),
		RedirectView,
		View(http.StatusOK, flashesView),
	)

	c, rec := newTestContext(http.MethodGet, "/users/1")
	st, err := p.Run(c)

	if !errors.Is(err, boom) {
		t.Fatalf("expected short-circuit error, got %v", err)
	}
	if handled != boom {
		t.Error("expected error terminal to receive the short-circuit error")
	}
	if strings.Join(log, ",") != "before" {
		t.Errorf("expected only 'before' to run, got %v", log)
	}
	if st.Status() != StatusShortCircuited {
		t.Errorf("expected short_circuited, got %s", st.Status())
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected no body from skipped view, got %q", rec.Body.String())
	}
}

func TestShortCircuit_NilErrorBecomesInternal(t *testing.T) {
	out := ShortCircuit(nil)
	if out.Kind() != KindShortCircuit {
		t.Fatalf("expected short-circuit kind, got %v", out.Kind())
	}
	if apperror.SafeCode(out.Err()) != http.StatusInternalServerError {
		t.Errorf("expected internal error, got %v", out.Err())
	}
}

func TestRun_NilCommitShortCircuits(t *testing.T) {
	var log []string
	p := NewEngine(nil).WithErrorHandler(func(_ echo.Context, _ *State, err error) error {
		return err
	}).Chain(
		func(_ echo.Context, _ *State) Outcome { return Commit(nil) },
		recorder(&log, "after"),
	)

	c, _ := newTestContext(http.MethodGet, "/")
	st, err := p.Run(c)
	if apperror.SafeCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected internal error, got %v", err)
	}
	if st.Status() != StatusShortCircuited {
		t.Errorf("expected short_circuited, got %s", st.Status())
	}
	if len(log) != 0 {
		t.Errorf("expected no steps after the failed commit, got %v", log)
	}
}

func TestRun_CommitStopsAndClearsState(t *testing.T) {
	var log []string
	p := NewEngine(nil).Chain(
		func(_ echo.Context, st *State) Outcome {
			st.Redirect = "/users"
			st.AddFlash(flash.LevelSuccess, "done")
			return Continue()
		},
		func(_ echo.Context, _ *State) Outcome {
			return Commit(JSON(http.StatusCreated, map[string]bool{"ok": true}))
		},
		recorder(&log, "after"),
	)

	c, rec := newTestContext(http.MethodPost, "/users/create")
	st, err := p.Run(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if len(log) != 0 {
		t.Errorf("expected no steps after commit, got %v", log)
	}
	if st.Status() != StatusCommitted {
		t.Errorf("expected committed, got %s", st.Status())
	}
	if st.Redirect != "" || len(st.Flashes) != 0 {
		t.Errorf("expected state consumed by commit, got redirect=%q flashes=%v", st.Redirect, st.Flashes)
	}
}

func TestRun_NoStepsIsPending(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/")
	st, err := NewEngine(nil).Chain().Run(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Status() != StatusPending {
		t.Errorf("expected pending, got %s", st.Status())
	}
	if c.Response().Committed {
		t.Errorf("expected nothing written, got status %d", rec.Code)
	}
}

func TestRun_StateVisibleThroughContext(t *testing.T) {
	var seen *State
	p := NewEngine(nil).Chain(func(c echo.Context, st *State) Outcome {
		seen = GetState(c)
		return Continue()
	})

	c, _ := newTestContext(http.MethodGet, "/")
	st, _ := p.Run(c)
	if seen != st {
		t.Error("expected GetState to return the running state")
	}
}

// --- RedirectView Tests ---

func TestRedirectView_CommitsPendingRedirect(t *testing.T) {
	store := &memoryFlashStore{}
	var log []string
	p := NewEngine(store).Chain(
		func(_ echo.Context, st *State) Outcome {
			st.Redirect = "/users"
			st.AddFlash(flash.LevelSuccess, "Ann's account created successfully!")
			return Continue()
		},
		RedirectView,
		recorder(&log, "view"),
	)

	c, rec := newTestContext(http.MethodPost, "/users/create")
	if _, err := p.Run(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/users" {
		t.Errorf("expected Location /users, got %q", loc)
	}
	if len(log) != 0 {
		t.Error("expected view step not to run after redirect")
	}
	if len(store.pending) != 1 || store.pending[0].Level != flash.LevelSuccess {
		t.Errorf("expected flash persisted for next request, got %+v", store.pending)
	}
}

func TestRedirectView_PersistFailureStillRedirects(t *testing.T) {
	store := &memoryFlashStore{pushErr: errors.New("redis down")}
	p := NewEngine(store).Chain(
		func(_ echo.Context, st *State) Outcome {
			st.Redirect = "/"
			st.AddFlash(flash.LevelSuccess, "bye")
			return Continue()
		},
		RedirectView,
	)

	c, rec := newTestContext(http.MethodGet, "/users/logout")
	if _, err := p.Run(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", rec.Code)
	}
}

func TestRedirectView_ContinuesToView(t *testing.T) {
	store := &memoryFlashStore{pending: []flash.Message{{Level: flash.LevelSuccess, Text: "carried"}}}
	p := NewEngine(store).Chain(
		func(_ echo.Context, st *State) Outcome {
			st.AddFlash(flash.LevelInfo, "now")
			return Continue()
		},
		RedirectView,
		View(http.StatusOK, flashesView),
	)

	c, rec := newTestContext(http.MethodGet, "/users")
	st, err := p.Run(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "success:carried;info:now;" {
		t.Errorf("unexpected render: %q", got)
	}
	if st.Status() != StatusCommitted {
		t.Errorf("expected committed, got %s", st.Status())
	}
	if len(store.pending) != 0 {
		t.Error("expected carried flashes to be consumed")
	}
}

// --- SetReferer Tests ---

func TestSetReferer(t *testing.T) {
	tests := []struct {
		name     string
		referer  string
		expected string
	}{
		{"same host", "http://example.com/users/new?x=1", "/users/new?x=1"},
		{"relative", "/subscribers", "/subscribers"},
		{"foreign host", "http://evil.test/phish", ""},
		{"none", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(http.MethodGet, "/users/login")
			if tt.referer != "" {
				c.Request().Header.Set("Referer", tt.referer)
			}
			st := newState(nil)
			if out := SetReferer(c, st); out.Kind() != KindContinue {
				t.Fatalf("expected continue, got %v", out.Kind())
			}
			if st.Redirect != tt.expected {
				t.Errorf("expected redirect %q, got %q", tt.expected, st.Redirect)
			}
		})
	}
}

func TestState_FormValuePrefersNormalized(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("email=%20Ann%40X.com&name=Ann"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	c := e.NewContext(req, httptest.NewRecorder())

	st := newState(nil)
	st.Form = map[string][]string{"email": {"ann@x.com"}}

	if got := st.FormValue(c, "email"); got != "ann@x.com" {
		t.Errorf("expected normalized email, got %q", got)
	}
	if got := st.FormValue(c, "name"); got != "Ann" {
		t.Errorf("expected raw name fallback, got %q", got)
	}
}
