package database

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// StartPostgreSQL opens a connection pool and checks that the server answers.
func StartPostgreSQL(ctx context.Context, uri string, logger *slog.Logger) (*pgxpool.Pool, error) {
	if uri == "" {
		return nil, oops.Code("DB_CONFIG_INVALID").Errorf("you must set your 'POSTGRESQL_URI' environmental variable")
	}

	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "open pool").Wrap(err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}

	logger.Info("connected to PostgreSQL")
	return pool, nil
}

// ClosePostgreSQL closes the pool.
func ClosePostgreSQL(pool *pgxpool.Pool, logger *slog.Logger) {
	if pool != nil {
		pool.Close()
		logger.Info("database connection closed")
	}
}
