package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	pkgconfig "intelhub/internal/pkg/config"
)

// serverSelectionTimeout bounds the startup reachability probe;
// connectTimeout bounds each new pooled connection's TCP+auth handshake.
const (
	serverSelectionTimeout = 5 * time.Second
	connectTimeout         = 3 * time.Second
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates and configures the shared Postgres connection pool backing
// the Cache Store, Archive Store, Vector Index, and Recommendation
// collection. It reads DATABASE_URL from the environment; a missing or
// unreachable database is a fatal startup failure.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", withConnectTimeout(dsn))
	if err != nil {
		log.Fatal(err)
	}

	cfg := getConnectionConfigFromEnv()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	ctx, cancel := context.WithTimeout(context.Background(), serverSelectionTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	slog.Info("database connection established successfully")
	return db
}

// withConnectTimeout appends connect_timeout to the DSN unless the operator
// already set one.
func withConnectTimeout(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	q := u.Query()
	if q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", "3")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// getConnectionConfigFromEnv reads connection pool tuning from the
// environment via the fail-open typed loaders, falling back to defaults on
// missing or invalid values.
func getConnectionConfigFromEnv() ConnectionConfig {
	def := DefaultConnectionConfig()

	positiveInt := func(v int) error { return pkgconfig.ValidateIntRange(v, 1, 10000) }
	positiveDur := pkgconfig.ValidatePositiveDuration

	return ConnectionConfig{
		MaxOpenConns:    pkgconfig.LoadEnvInt("DB_MAX_OPEN_CONNS", def.MaxOpenConns, positiveInt),
		MaxIdleConns:    pkgconfig.LoadEnvInt("DB_MAX_IDLE_CONNS", def.MaxIdleConns, positiveInt),
		ConnMaxLifetime: pkgconfig.LoadEnvDuration("DB_CONN_MAX_LIFETIME", def.ConnMaxLifetime, positiveDur),
		ConnMaxIdleTime: pkgconfig.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", def.ConnMaxIdleTime, positiveDur),
	}
}
