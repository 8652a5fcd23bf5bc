package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/roster/internal/config"
)

// NewMariaDB opens the users/subscribers/audit pool and blocks until
// MariaDB answers or cfg.Connect gives up.
func NewMariaDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	slog.Debug("mariadb pool configured",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Name),
		slog.Int("max_open", cfg.MaxOpenConns),
		slog.Int("max_idle", cfg.MaxIdleConns),
		slog.Duration("max_lifetime", cfg.ConnMaxLifetime),
	)

	if err := newWaiter("mariadb", cfg.Connect).wait(ctx, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
