package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ddtips/dashboard/internal/config"
)

// Open picks the backend the configuration names: PostgreSQL (behind Redis
// when REDIS_URL is set), then SQLite, then memory. The returned func
// releases every connection.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		pg := NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("connected to PostgreSQL")

		if cfg.RedisURL == "" {
			return pg, pool.Close, nil
		}
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opt)
		slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL.String())
		return NewCachedStore(pg, rdb, cfg.CacheTTL), func() {
			rdb.Close()
			pool.Close()
		}, nil

	case cfg.SQLitePath != "":
		lite, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite open failed: %w", err)
		}
		slog.Info("using SQLite store", "path", cfg.SQLitePath)
		return lite, func() { lite.Close() }, nil
	}

	slog.Warn("DATABASE_URL and SQLITE_PATH not set, using in-memory store (data will not persist)")
	return NewMemoryStore(), func() {}, nil
}
