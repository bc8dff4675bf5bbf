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

const selectPostSQL = `SELECT id, title, content, author_id, is_published, created_at, updated_at FROM blog_posts`

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func scanPost(row rowScanner) (model.Post, error) {
	var p model.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostRepository) Create(ctx context.Context, p model.Post) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO blog_posts (id, title, content, author_id, is_published, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Title, p.Content, p.AuthorID, p.IsPublished, p.CreatedAt, p.UpdatedAt)
	if isForeignKeyViolation(err) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id string) (model.Post, error) {
	if !validID(id) {
		return model.Post{}, model.ErrPostNotFound
	}

	p, err := scanPost(r.pool.QueryRow(ctx, selectPostSQL+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrPostNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("find post: %w", err)
	}
	return p, nil
}

func (r *PostRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Post, error) {
	var (
		where []string
		args  []any
	)
	if filter.AuthorID != "" {
		if !validID(filter.AuthorID) {
			return []model.Post{}, nil
		}
		args = append(args, filter.AuthorID)
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if filter.Published != nil {
		args = append(args, *filter.Published)
		where = append(where, fmt.Sprintf("is_published = $%d", len(args)))
	}

	query := selectPostSQL
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id" + limitOffset(filter, &args)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) Update(ctx context.Context, id string, mutate func(*model.Post) error) (model.Post, error) {
	if !validID(id) {
		return model.Post{}, model.ErrPostNotFound
	}

	var updated model.Post
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanPost(tx.QueryRow(ctx, selectPostSQL+` WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("lock post: %w", err)
		}

		if err := mutate(&p); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE blog_posts SET title = $2, content = $3, is_published = $4, updated_at = $5 WHERE id = $1`,
			p.ID, p.Title, p.Content, p.IsPublished, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update post: %w", err)
		}

		updated = p
		return nil
	})
	if err != nil {
		return model.Post{}, err
	}
	return updated, nil
}

// Delete locks the post, lets check veto the deletion, then removes it. The
// comments go with it through ON DELETE CASCADE.
func (r *PostRepository) Delete(ctx context.Context, id string, check func(model.Post) error) error {
	if !validID(id) {
		return model.ErrPostNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanPost(tx.QueryRow(ctx, selectPostSQL+` WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrPostNotFound
		}
		if err != nil {
			return fmt.Errorf("lock post: %w", err)
		}

		if err := check(p); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
}

func limitOffset(filter model.ListFilter, args *[]any) string {
	var clause string
	if filter.Limit > 0 {
		*args = append(*args, filter.Limit)
		clause += fmt.Sprintf(" LIMIT $%d", len(*args))
	}
	if filter.Offset > 0 {
		*args = append(*args, filter.Offset)
		clause += fmt.Sprintf(" OFFSET $%d", len(*args))
	}
	return clause
}
