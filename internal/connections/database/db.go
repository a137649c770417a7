package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/config"
)

const (
	maxRetries = 10
	retryDelay = 2 * time.Second
	pingTTL    = 5 * time.Second
)

// ConnectDB opens a pgx-backed pool, retrying until Postgres answers a ping.
func ConnectDB(ctx context.Context, cfg config.DatabaseConfig, lg *logger.Logger) (*sql.DB, error) {
	var err error
	for i := 1; i <= maxRetries; i++ {
		var db *sql.DB
		db, err = open(ctx, cfg.DSN())
		if err == nil {
			lg.Info("db_connected", map[string]any{"host": cfg.Host, "database": cfg.Database, "attempt": i})
			return db, nil
		}
		lg.Warn("db_connect_retry", err, map[string]any{"attempt": i, "max": maxRetries})

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("db connect canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, err)
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pingTTL)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
