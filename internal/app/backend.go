package app

import (
	"context"
	"fmt"
	"log/slog"

	"go-blog-api/internal/config"
	"go-blog-api/internal/database"
	"go-blog-api/internal/handler"
	"go-blog-api/internal/model"
	"go-blog-api/internal/repository"
	"go-blog-api/internal/service"
)

// Backend bundles the stores selected by configuration.
type Backend struct {
	Users     service.UserStore
	Posts     service.ResourceStore[model.Post]
	Comments  service.ResourceStore[model.Comment]
	Blacklist service.TokenBlacklist
	Checks    map[string]handler.Pinger

	closers []func()
}

// OpenBackend connects the configured store and blacklist. Postgres gets
// its schema ensured; an empty REDIS_URL selects the in-process blacklist.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Checks: map[string]handler.Pinger{}}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		store := repository.NewMemoryStore()
		b.Users, b.Posts, b.Comments = store.Users(), store.Posts(), store.Comments()
		b.Checks["store"] = store
	default:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.closers = append(b.closers, db.Close)

		if err := db.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		b.Users = repository.NewUserRepository(db.Pool)
		b.Posts = repository.NewPostRepository(db.Pool)
		b.Comments = repository.NewCommentRepository(db.Pool)
		b.Checks["database"] = db
		slog.Info("database ready")
	}

	if cfg.RedisURL == "" {
		slog.Warn("REDIS_URL not set; revoked tokens are kept in memory")
		blacklist := repository.NewMemoryBlacklist()
		b.Blacklist = blacklist
		b.Checks["blacklist"] = blacklist
		return b, nil
	}

	client, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	b.closers = append(b.closers, func() { _ = client.Close() })

	blacklist := repository.NewRedisBlacklist(client)
	b.Blacklist = blacklist
	b.Checks["redis"] = blacklist

	return b, nil
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
