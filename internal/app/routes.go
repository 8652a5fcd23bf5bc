package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roster/internal/middleware"
	"github.com/keyxmakerx/roster/internal/pipeline"
	"github.com/keyxmakerx/roster/internal/plugins/audit"
	"github.com/keyxmakerx/roster/internal/plugins/auth"
	"github.com/keyxmakerx/roster/internal/plugins/subscribers"
	"github.com/keyxmakerx/roster/internal/plugins/users"
	"github.com/keyxmakerx/roster/internal/templates/pages"
)

// RegisterRoutes wires every plugin and registers all routes. This is the
// single place where routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo
	engine := pipeline.NewEngine(a.Flashes)

	// --- Plugin wiring ---

	auditService := audit.NewAuditService(audit.NewAuditRepository(a.DB))
	auditHandler := audit.NewHandler(auditService)

	userRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewAuthService(userRepo, a.Redis, auditService, a.Config.Auth.SessionTTL)
	authHandler := auth.NewHandler(authService, a.Tokens, a.Config.Auth.TokenTTL, a.Config.Auth.SessionTTL, auditService)
	guard := auth.NewGuard(userRepo, a.Tokens, a.Config.Auth.APIToken)

	userHandler := users.NewHandler(users.NewUserService(userRepo, authService, auditService))
	subscriberHandler := subscribers.NewHandler(
		subscribers.NewSubscriberService(subscribers.NewSubscriberRepository(a.DB), auditService),
	)

	// Every route sees the session, if any; RequireSession steps enforce it.
	e.Use(auth.LoadSession(authService))

	// --- Public Routes ---

	e.GET("/", engine.Chain(pipeline.View(http.StatusOK, pages.Landing)).Handler())
	e.GET("/healthz", a.healthz)

	// Session routes go first so /users/login is not read as a user ID.
	auth.RegisterRoutes(e, engine, authHandler)
	users.RegisterRoutes(e, engine, userHandler)
	subscribers.RegisterRoutes(e, engine, subscriberHandler)

	// --- API Routes ---
	// A header token selects the bearer guard, otherwise ?apiToken= is
	// checked against user API tokens and the configured shared token.
	api := e.Group("/api",
		middleware.CORS(middleware.CORSConfig{
			AllowedOrigins: []string{a.Config.BaseURL},
			AllowHeaders:   []string{"token"},
		}),
		engine.Middleware(auth.Either(guard.StaticToken, guard.BearerToken)),
	)
	users.RegisterAPIRoutes(api, engine, userHandler)
	subscribers.RegisterAPIRoutes(api, engine, subscriberHandler)
	audit.RegisterRoutes(api, auditHandler)
}

// healthz reports whether MariaDB and Redis answer.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "database": "ok", "redis": "ok"}
	code := http.StatusOK
	if err := a.DB.PingContext(ctx); err != nil {
		status["database"] = err.Error()
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		status["redis"] = err.Error()
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
