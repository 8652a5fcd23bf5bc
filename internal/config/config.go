// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL used for links and redirects.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	// Empty uses debug in development and info elsewhere.
	LogLevel string

	// Database holds MariaDB connection settings.
	Database DatabaseConfig

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds authentication-related settings.
	Auth AuthConfig

	// MigrationsPath is the directory holding the SQL migration files.
	MigrationsPath string
}

// DatabaseConfig holds MariaDB connection parameters. Individual fields
// (Host, User, Password, Name) are read from separate env vars so
// container orchestrators can manage each independently.
// If DATABASE_URL is set, it takes precedence over the individual fields.
type DatabaseConfig struct {
	// Host is the MariaDB address in host:port format (default: "localhost:3306").
	// If no port is specified, 3306 is appended automatically.
	Host string

	// User is the MariaDB username (default: "roster").
	User string

	// Password is the MariaDB password (default: "roster").
	Password string

	// Name is the database name (default: "roster").
	Name string

	// dsnOverride is set when DATABASE_URL is provided, bypassing individual fields.
	dsnOverride string

	// MaxOpenConns is the maximum number of open connections in the pool.
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// ConnMaxLifetime is how long a connection can be reused.
	ConnMaxLifetime time.Duration

	// Connect controls how long startup waits for MariaDB to answer.
	Connect RetryConfig
}

// DSN returns the go-sql-driver/mysql connection string. If DATABASE_URL was
// set, it is returned as-is. Otherwise the DSN is built from the individual
// Host/User/Password/Name fields using the driver's Config.FormatDSN()
// to safely handle special characters in passwords.
func (d DatabaseConfig) DSN() string {
	if d.dsnOverride != "" {
		return d.dsnOverride
	}
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = ensurePort(d.Host, "3306")
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// ensurePort appends the default port if the host string doesn't include one.
// Allows users to set DB_HOST=mydb (gets :3306) or DB_HOST=mydb:3307 (as-is).
func ensurePort(host, defaultPort string) string {
	_, _, err := net.SplitHostPort(host)
	if err != nil {
		return net.JoinHostPort(host, defaultPort)
	}
	return host
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	URL string

	// Connect controls how long startup waits for Redis to answer.
	Connect RetryConfig
}

// RetryConfig is the startup ping policy for a backing store. The delay
// between attempts starts at Backoff and doubles up to MaxBackoff.
type RetryConfig struct {
	Attempts    int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	PingTimeout time.Duration
}

func (r RetryConfig) validate(prefix string) error {
	if r.Attempts < 1 {
		return fmt.Errorf("%s_CONNECT_ATTEMPTS must be at least 1", prefix)
	}
	if r.Backoff < 0 || r.MaxBackoff < r.Backoff {
		return fmt.Errorf("%s_CONNECT_BACKOFF must not exceed %s_CONNECT_MAX_BACKOFF", prefix, prefix)
	}
	if r.PingTimeout <= 0 {
		return fmt.Errorf("%s_PING_TIMEOUT must be positive", prefix)
	}
	return nil
}

func loadRetry(prefix string, attempts int, backoff time.Duration) RetryConfig {
	return RetryConfig{
		Attempts:    getEnvInt(prefix+"_CONNECT_ATTEMPTS", attempts),
		Backoff:     getEnvDuration(prefix+"_CONNECT_BACKOFF", backoff),
		MaxBackoff:  getEnvDuration(prefix+"_CONNECT_MAX_BACKOFF", 30*time.Second),
		PingTimeout: getEnvDuration(prefix+"_PING_TIMEOUT", 5*time.Second),
	}
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// TokenSecret signs API bearer tokens. Required; there is no default.
	TokenSecret string

	// APIToken is an optional shared token accepted by the static API guard
	// in addition to per-user API tokens.
	APIToken string

	// TokenTTL is how long an issued bearer token stays valid.
	TokenTTL time.Duration

	// SessionTTL is how long browser sessions last before expiring.
	SessionTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost:3306"),
			User:            getEnv("DB_USER", "roster"),
			Password:        getEnv("DB_PASSWORD", "roster"),
			Name:            getEnv("DB_NAME", "roster"),
			dsnOverride:     getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Connect:         loadRetry("DB", 10, time.Second),
		},

		Redis: RedisConfig{
			URL:     getEnv("REDIS_URL", "redis://localhost:6379"),
			Connect: loadRetry("REDIS", 5, 500*time.Millisecond),
		},

		Auth: AuthConfig{
			TokenSecret: getEnv("TOKEN_SECRET", ""),
			APIToken:    getEnv("API_TOKEN", ""),
			TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),
			SessionTTL:  getEnvDuration("SESSION_TTL", 720*time.Hour),
		},

		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
	}

	// The signing secret is required in every environment. Case-insensitive
	// env check catches common variants like "Production", "prod", etc.
	if cfg.Auth.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	if cfg.IsProduction() && len(cfg.Auth.TokenSecret) < 32 {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least 32 characters in production")
	}
	if cfg.Auth.TokenTTL <= 0 || cfg.Auth.SessionTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL and SESSION_TTL must be positive")
	}
	if err := cfg.Database.Connect.validate("DB"); err != nil {
		return nil, err
	}
	if err := cfg.Redis.Connect.validate("REDIS"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
