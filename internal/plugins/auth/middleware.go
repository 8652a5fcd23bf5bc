package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "roster_session"

// Context keys for storing session data in Echo context. Other plugins
// use the exported getters below to read them.
const (
	contextKeySession = "auth_session"
	contextKeyUserID  = "auth_user_id"
)

// LoadSession returns middleware that resolves the session cookie, if any,
// and stores the session in the Echo context. It never rejects a request:
// routes that need a principal add RequireSession to their pipeline.
func LoadSession(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return next(c)
			}

			session, err := service.ValidateSession(c.Request().Context(), token)
			if err != nil {
				// Expired, unknown or orphaned: drop the cookie. A store
				// failure keeps it so the next request can retry.
				if apperror.SafeCode(err) == http.StatusUnauthorized {
					clearSessionCookie(c)
				} else {
					slog.Warn("session lookup failed", slog.Any("error", err))
				}
				return next(c)
			}

			c.Set(contextKeySession, session)
			c.Set(contextKeyUserID, session.UserID)
			return next(c)
		}
	}
}

// RequireSession is a pipeline step that short-circuits with 401 when no
// session was loaded. The HTTP error handler turns that into a redirect to
// the login page for browsers.
func RequireSession(c echo.Context, _ *pipeline.State) pipeline.Outcome {
	if GetSession(c) == nil {
		return pipeline.ShortCircuit(apperror.NewUnauthorized("Please log in first."))
	}
	return pipeline.Continue()
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request carries no valid session.
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID retrieves the session principal's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// ActorContext returns the request context naming whoever is acting: the
// session principal on browser routes, the guard's principal on API routes.
// Audit entries recorded with it carry that actor.
func ActorContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if id := GetUserID(c); id != "" {
		return audit.WithActor(ctx, id)
	}
	return audit.WithActor(ctx, GetAPIPrincipal(c))
}

// --- Cookie helpers ---

func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setSessionCookie stores the session token: HttpOnly, Secure behind TLS,
// and SameSite=Lax.
func setSessionCookie(c echo.Context, token string, ttl time.Duration) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
