package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/flash"
	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
)

// Redirect targets for the session routes.
const (
	loginPath       = "/users/login"
	afterLoginPath  = "/"
	afterLogoutPath = "/"
)

// apiLoginResponse is the body of POST /api/login.
type apiLoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`

	// APIToken is the principal's own ?apiToken= credential.
	APIToken string `json:"apiToken,omitempty"`
}

// credentials is bound from either a form or a JSON body.
type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Handler holds the pipeline steps for login, logout and API login. Steps
// are thin: they read the request, call the service, and record the
// redirect and flash in the pipeline State.
type Handler struct {
	service    AuthService
	tokens     TokenCodec
	tokenTTL   time.Duration
	sessionTTL time.Duration
	audit      audit.Recorder
}

// NewHandler creates a new auth handler.
func NewHandler(service AuthService, tokens TokenCodec, tokenTTL, sessionTTL time.Duration, rec audit.Recorder) *Handler {
	return &Handler{
		service:    service,
		tokens:     tokens,
		tokenTTL:   tokenTTL,
		sessionTTL: sessionTTL,
		audit:      rec,
	}
}

// Authenticate checks the submitted credentials and binds a session
// (POST /users/authenticate). Success and failure both end in a redirect
// with a flash.
func (h *Handler) Authenticate(c echo.Context, st *pipeline.State) pipeline.Outcome {
	var in credentials
	if err := c.Bind(&in); err != nil {
		return pipeline.ShortCircuit(apperror.NewBadRequest("invalid request"))
	}

	token, _, err := h.service.Login(c.Request().Context(), in.Username, in.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			return pipeline.ShortCircuit(err)
		}
		st.AddFlash(flash.LevelError, "Failed to login.")
		st.Redirect = loginPath
		return pipeline.Continue()
	}

	setSessionCookie(c, token, h.sessionTTL)
	st.AddFlash(flash.LevelSuccess, "Logged in!")
	st.Redirect = afterLoginPath
	return pipeline.Continue()
}

// Logout destroys the session, if any, and clears the cookie
// (GET /users/logout).
func (h *Handler) Logout(c echo.Context, st *pipeline.State) pipeline.Outcome {
	if token := getSessionToken(c); token != "" {
		if err := h.service.DestroySession(c.Request().Context(), token); err != nil {
			// The cookie is cleared regardless.
			slog.Warn("failed to destroy session", slog.Any("error", err))
		}
	}
	clearSessionCookie(c)

	st.AddFlash(flash.LevelSuccess, "You have been logged out!")
	st.Redirect = afterLogoutPath
	return pipeline.Continue()
}

// APILogin authenticates API clients and hands out a bearer token
// (POST /api/login).
func (h *Handler) APILogin(c echo.Context, _ *pipeline.State) pipeline.Outcome {
	var in credentials
	if err := c.Bind(&in); err != nil {
		return pipeline.ShortCircuit(apperror.NewBadRequest("invalid request"))
	}

	ctx := c.Request().Context()
	user, err := h.service.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			return pipeline.ShortCircuit(err)
		}
		return pipeline.Commit(pipeline.JSON(http.StatusUnauthorized, apiLoginResponse{
			Success: false,
			Message: "Could not authenticate user.",
		}))
	}

	signed, err := h.tokens.Issue(user.ID, h.tokenTTL)
	if err != nil {
		return pipeline.ShortCircuit(apperror.NewInternal(err))
	}

	audit.Record(ctx, h.audit, &audit.Entry{
		ActorID:    user.ID,
		Action:     audit.ActionTokenIssued,
		TargetType: "user",
		TargetID:   user.ID,
	})

	return pipeline.Commit(pipeline.JSON(http.StatusOK, apiLoginResponse{
		Success: true,
		Message:  "Success authenticating user!",
		Token:    signed,
		APIToken: user.APIToken,
	}))
}
