// data.go provides typed context helpers for passing layout data from the
// pipeline to Templ components. Only simple types are stored so this package
// does not import plugin packages.
//
// Data flow: Pipeline state / Echo Context → LayoutInjector → Go Context → Templ
package layouts

import (
	"context"

	"github.com/keyxmakerx/roster/internal/flash"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyUserID          ctxKey = "layout_user_id"
	keyUserName        ctxKey = "layout_user_name"
	keyCSRFToken       ctxKey = "layout_csrf_token"
	keyFlashes         ctxKey = "layout_flashes"
	keyActivePath      ctxKey = "layout_active_path"
)

// --- Setters ---

// SetIsAuthenticated marks whether the current request has a valid session.
func SetIsAuthenticated(ctx context.Context, authed bool) context.Context {
	return context.WithValue(ctx, keyIsAuthenticated, authed)
}

// SetUserID stores the session subject's id.
func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyUserID, id)
}

// SetUserName stores the session subject's display name.
func SetUserName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyUserName, name)
}

// SetCSRFToken stores the CSRF token for forms.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetFlashes stores the flash messages to show on this render.
func SetFlashes(ctx context.Context, msgs []flash.Message) context.Context {
	return context.WithValue(ctx, keyFlashes, msgs)
}

// SetActivePath stores the current request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// --- Getters ---

// IsAuthenticated returns true if the current request has a valid session.
func IsAuthenticated(ctx context.Context) bool {
	authed, _ := ctx.Value(keyIsAuthenticated).(bool)
	return authed
}

// GetUserID returns the session subject's id, or "".
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(keyUserID).(string)
	return id
}

// GetUserName returns the session subject's display name, or "".
func GetUserName(ctx context.Context) string {
	name, _ := ctx.Value(keyUserName).(string)
	return name
}

// GetCSRFToken returns the CSRF token, or "".
func GetCSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(keyCSRFToken).(string)
	return token
}

// GetFlashes returns the flash messages for this render.
func GetFlashes(ctx context.Context) []flash.Message {
	msgs, _ := ctx.Value(keyFlashes).([]flash.Message)
	return msgs
}

// GetActivePath returns the current request path, or "".
func GetActivePath(ctx context.Context) string {
	path, _ := ctx.Value(keyActivePath).(string)
	return path
}
