package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-blog-api/internal/model"
)

const selectUserSQL = `SELECT id, username, email, password_hash, role, created_at, updated_at FROM users`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	if !validID(id) {
		return model.User{}, model.ErrUserNotFound
	}
	return r.findOne(ctx, selectUserSQL+` WHERE id = $1`, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	return r.findOne(ctx, selectUserSQL+` WHERE lower(username) = lower($1)`, strings.TrimSpace(username))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, selectUserSQL+` WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))`,
		strings.TrimSpace(username)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		strings.TrimSpace(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return userWriteError("create user", err)
	}
	return nil
}

// Update locks the user row, applies mutate and writes the result back in a
// single transaction. An error from mutate aborts the transaction.
func (r *UserRepository) Update(ctx context.Context, id string, mutate func(*model.User) error) (model.User, error) {
	if !validID(id) {
		return model.User{}, model.ErrUserNotFound
	}

	var updated model.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, selectUserSQL+` WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		if err := mutate(&u); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = $6
			 WHERE id = $1`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.UpdatedAt)
		if err != nil {
			return userWriteError("update user", err)
		}

		updated = u
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return updated, nil
}

func userWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err, "users_username_key"):
		return model.ErrUsernameTaken
	case isUniqueViolation(err, "users_email_key"):
		return model.ErrEmailTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
