package service

import (
	"context"
	"time"

	"go-blog-api/internal/model"
)

type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, id string, mutate func(*model.User) error) (model.User, error)
}

type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ResourceStore is the persistence contract for posts and comments. Update
// and Delete run their callback on the freshly loaded record inside the same
// transaction; a callback error aborts the write.
type ResourceStore[T any] interface {
	Create(ctx context.Context, item T) error
	FindByID(ctx context.Context, id string) (T, error)
	List(ctx context.Context, filter model.ListFilter) ([]T, error)
	Update(ctx context.Context, id string, mutate func(*T) error) (T, error)
	Delete(ctx context.Context, id string, check func(T) error) error
}

type PostFinder interface {
	FindByID(ctx context.Context, id string) (model.Post, error)
}
