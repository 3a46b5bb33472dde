// Package database opens the Postgres connections used by the API and the workers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"a2g/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq" // registers the "postgres" driver used by pgmq
)

// withParam appends key=value to a URL or keyword/value DSN unless the key is present.
func withParam(dsn, key, value string) string {
	if strings.Contains(dsn, key) {
		return dsn
	}
	separator := " "
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		separator = "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
	}
	return dsn + separator + key + "=" + value
}

// baseDSN disables SSL for local development unless the DSN says otherwise.
func baseDSN(cfg *config.Config) string {
	dsn := cfg.DBConnectionString
	if cfg.Environment == "development" {
		dsn = withParam(dsn, "sslmode", "disable")
	}
	return dsn
}

// PoolDSN is the DSN for pgx. Outside development the database sits behind a
// transaction pooler, which cannot hold server-side prepared statements.
func PoolDSN(cfg *config.Config) string {
	dsn := baseDSN(cfg)
	if cfg.Environment != "development" {
		dsn = withParam(dsn, "default_query_exec_mode", "simple_protocol")
	}
	return dsn
}

// NewPool opens and pings the pgx pool used by the repositories.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(PoolDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolCfg.MaxConns = 25
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenQueueDB opens the database/sql handle the pgmq client runs on.
func OpenQueueDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", baseDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping queue database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}
