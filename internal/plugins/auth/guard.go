package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/pipeline"
)

// Header and query names the API guards read.
const (
	bearerHeader           = "token"
	apiTokenParam          = "apiToken"
	contextKeyAPIPrincipal = "auth_api_principal"
)

// PrincipalFinder is the read side of the user store the guards need.
// UserRepository satisfies it.
type PrincipalFinder interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindOne(ctx context.Context, filter Filter) (*User, error)
}

// TokenCodec issues and verifies bearer tokens. *token.Codec satisfies it.
type TokenCodec interface {
	Issue(subjectID string, ttl time.Duration) (string, error)
	Verify(tokenString string) (string, error)
}

// guardFailure is the JSON body the bearer guard answers with.
type guardFailure struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Guard protects API routes. Guards only read: they never touch the
// browser session.
type Guard struct {
	users    PrincipalFinder
	tokens   TokenCodec
	fallback string
}

// NewGuard creates the API guards. fallback is an optional static token
// accepted in addition to each principal's own API token.
func NewGuard(users PrincipalFinder, tokens TokenCodec, fallback string) *Guard {
	return &Guard{users: users, tokens: tokens, fallback: fallback}
}

// StaticToken accepts ?apiToken= when it matches a principal's stored API
// token or the configured fallback.
func (g *Guard) StaticToken(c echo.Context, _ *pipeline.State) pipeline.Outcome {
	tok := c.QueryParam(apiTokenParam)
	if tok == "" {
		return pipeline.ShortCircuit(apperror.NewUnauthorized("No API token!"))
	}

	if g.fallback != "" && subtle.ConstantTimeCompare([]byte(tok), []byte(g.fallback)) == 1 {
		return pipeline.Continue()
	}

	user, err := g.users.FindOne(c.Request().Context(), Filter{APIToken: tok})
	if err != nil {
		if apperror.IsNotFound(err) {
			return pipeline.ShortCircuit(apperror.NewUnauthorized("Invalid API token!"))
		}
		return pipeline.ShortCircuit(apperror.NewInternal(fmt.Errorf("looking up api token: %w", err)))
	}

	c.Set(contextKeyAPIPrincipal, user.ID)
	return pipeline.Continue()
}

// BearerToken accepts a signed token in the "token" header whose subject
// still exists. Every failure answers immediately and ends the run.
func (g *Guard) BearerToken(c echo.Context, _ *pipeline.State) pipeline.Outcome {
	raw := c.Request().Header.Get(bearerHeader)
	if raw == "" {
		return deny(http.StatusUnauthorized, "Provide Token.")
	}

	subject, err := g.tokens.Verify(raw)
	if err != nil {
		slog.Debug("bearer token rejected", slog.Any("error", err))
		return deny(http.StatusUnauthorized, "Cannot verify API token.")
	}

	user, err := g.users.FindByID(c.Request().Context(), subject)
	if err != nil {
		if apperror.IsNotFound(err) {
			return deny(http.StatusForbidden, "No user account found.")
		}
		return pipeline.ShortCircuit(apperror.NewInternal(fmt.Errorf("resolving token subject: %w", err)))
	}

	c.Set(contextKeyAPIPrincipal, user.ID)
	return pipeline.Continue()
}

func deny(status int, message string) pipeline.Outcome {
	return pipeline.Commit(pipeline.JSON(status, guardFailure{Error: true, Message: message}))
}

// Either picks the bearer guard when the request carries a token header
// and the static-token guard otherwise.
func Either(static, bearer pipeline.Step) pipeline.Step {
	return func(c echo.Context, st *pipeline.State) pipeline.Outcome {
		if c.Request().Header.Get(bearerHeader) != "" {
			return bearer(c, st)
		}
		return static(c, st)
	}
}

// GetAPIPrincipal returns the principal ID a guard resolved, or "" when the
// request passed on the fallback token.
func GetAPIPrincipal(c echo.Context) string {
	id, _ := c.Get(contextKeyAPIPrincipal).(string)
	return id
}
