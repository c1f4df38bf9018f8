// Package storage selects and opens the configured repository backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TiwariV18/FinTrack/internal/app/migrate"
	"github.com/TiwariV18/FinTrack/internal/repository"
	"github.com/TiwariV18/FinTrack/internal/repository/memory"
	"github.com/TiwariV18/FinTrack/internal/repository/mongo"
	"github.com/TiwariV18/FinTrack/internal/repository/postgres"
	"github.com/TiwariV18/FinTrack/internal/repository/sqlite"
	"github.com/TiwariV18/FinTrack/pkg/config"
)

// Open connects to the backend named by cfg.DataBackend and prepares its schema.
func Open(ctx context.Context, cfg config.APIConfig, log *slog.Logger) (repository.Store, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.DataBackend {
	case config.BackendPostgres:
		return openPostgres(ctx, cfg, log)
	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		log.Info("storage ready", "backend", cfg.DataBackend, "path", cfg.SQLitePath)
		return repo, nil
	case config.BackendMongo:
		repo, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("initialize mongo backend: %w", err)
		}
		log.Info("storage ready", "backend", cfg.DataBackend, "database", cfg.MongoDatabase)
		return repo, nil
	case config.BackendMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
	}
}

func openPostgres(ctx context.Context, cfg config.APIConfig, log *slog.Logger) (repository.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("configure migrations: %w", err)
	}
	if err := runner.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := runner.Ensure(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("storage ready", "backend", cfg.DataBackend)
	return postgres.New(pool), nil
}
