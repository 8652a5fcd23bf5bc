// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (DB pool, Redis client, token codec,
// Echo instance) and wires the plugins together.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/roster/internal/apperror"
	"github.com/keyxmakerx/roster/internal/config"
	"github.com/keyxmakerx/roster/internal/flash"
	"github.com/keyxmakerx/roster/internal/middleware"
	"github.com/keyxmakerx/roster/internal/plugins/auth"
	"github.com/keyxmakerx/roster/internal/templates/layouts"
	"github.com/keyxmakerx/roster/internal/token"
)

// flashTTL bounds how long an unread notice survives between redirects.
const flashTTL = 10 * time.Minute

// loginPath is where browsers land after a 401.
const loginPath = "/users/login"

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB connection pool shared by all plugins.
	DB *sql.DB

	// Redis backs sessions and flash messages.
	Redis *redis.Client

	// Tokens signs and verifies API bearer tokens.
	Tokens *token.Codec

	// Flashes carries notices across redirects.
	Flashes *flash.RedisStore

	// Echo is the HTTP server instance.
	Echo *echo.Echo
}

// New creates a new App instance with the given dependencies and configures
// the Echo server with global middleware and error handling.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client, tokens *token.Codec) *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	middleware.TrustedProxies(e, []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fd00::/8",
	})

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Tokens:  tokens,
		Flashes: flash.NewRedisStore(rdb, flashTTL),
		Echo:    e,
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler
	middleware.LayoutInjector = injectLayout

	return app
}

// setupMiddleware registers global middleware on the Echo instance.
// Order matters: recovery runs first, CSRF last.
func (a *App) setupMiddleware() {
	// HTML forms can only send GET and POST; _method carries PUT and DELETE.
	// Pre-router so the rewritten method is what gets routed.
	a.Echo.Pre(echomw.MethodOverrideWithConfig(echomw.MethodOverrideConfig{
		Getter: echomw.MethodFromForm("_method"),
	}))

	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.SecurityHeaders())
	a.Echo.Use(middleware.CSRF())
}

// injectLayout copies session, CSRF and navigation data into the render
// context for the layout components.
func injectLayout(c echo.Context, ctx context.Context) context.Context {
	if s := auth.GetSession(c); s != nil {
		ctx = layouts.SetIsAuthenticated(ctx, true)
		ctx = layouts.SetUserID(ctx, s.UserID)
		ctx = layouts.SetUserName(ctx, s.Name)
	}
	ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
	ctx = layouts.SetActivePath(ctx, section(c.Request().URL.Path))
	return ctx
}

// section maps a request path to its top-level nav entry: /users/u1/edit
// highlights /users.
func section(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "/"
	}
	first, _, _ := strings.Cut(trimmed, "/")
	return "/" + first
}

// errorHandler is the custom Echo error handler. API paths get JSON;
// browsers get an error page, except 401 which becomes a flash and a
// redirect to the login page.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := defaultErrorMessage(code)

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		message = appErr.Message
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
	case errors.As(err, &echoErr):
		code = echoErr.Code
		if msg, ok := echoErr.Message.(string); ok && msg != http.StatusText(code) {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if isAPIRequest(c) {
		_ = c.JSON(code, map[string]any{
			"error":   true,
			"message": message,
		})
		return
	}

	if code == http.StatusUnauthorized {
		if err := a.Flashes.Push(c, []flash.Message{{Level: flash.LevelError, Text: message}}); err != nil {
			slog.Warn("failed to queue login flash", slog.Any("error", err))
		}
		_ = c.Redirect(http.StatusSeeOther, loginPath)
		return
	}

	if err := middleware.Render(c, code, layouts.ErrorPage(code, message)); err != nil {
		slog.Error("rendering error page", slog.Any("error", err))
	}
}

// defaultErrorMessage returns a user-friendly message for common HTTP status
// codes when the error carried none.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "Please log in first."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "The page you're looking for doesn't exist."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusTooManyRequests:
		return "Too many attempts. Please try again later."
	default:
		return "Something went wrong on our end. Please try again."
	}
}

func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Roster server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
