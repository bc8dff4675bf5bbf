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

const selectCommentSQL = `SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, c.updated_at, p.author_id
	FROM comments c JOIN blog_posts p ON p.id = c.post_id`

type CommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{pool: pool}
}

func scanComment(row rowScanner) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.PostAuthorID)
	return c, err
}

func (r *CommentRepository) Create(ctx context.Context, c model.Comment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO comments (id, post_id, author_id, content, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.PostID, c.AuthorID, c.Content, c.CreatedAt, c.UpdatedAt)
	if isForeignKeyViolation(err) {
		// The post was deleted between lookup and insert.
		return model.ErrPostNotFound
	}
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (model.Comment, error) {
	if !validID(id) {
		return model.Comment{}, model.ErrCommentNotFound
	}

	c, err := scanComment(r.pool.QueryRow(ctx, selectCommentSQL+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Comment{}, model.ErrCommentNotFound
	}
	if err != nil {
		return model.Comment{}, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

func (r *CommentRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Comment, error) {
	var (
		where []string
		args  []any
	)
	conditions := []struct{ column, value string }{
		{"c.post_id", filter.PostID},
		{"c.author_id", filter.AuthorID},
	}
	for _, cond := range conditions {
		if cond.value == "" {
			continue
		}
		if !validID(cond.value) {
			return []model.Comment{}, nil
		}
		args = append(args, cond.value)
		where = append(where, fmt.Sprintf("%s = $%d", cond.column, len(args)))
	}

	query := selectCommentSQL
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY c.created_at, c.id" + limitOffset(filter, &args)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) Update(ctx context.Context, id string, mutate func(*model.Comment) error) (model.Comment, error) {
	if !validID(id) {
		return model.Comment{}, model.ErrCommentNotFound
	}

	var updated model.Comment
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := scanComment(tx.QueryRow(ctx, selectCommentSQL+` WHERE c.id = $1 FOR UPDATE OF c`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrCommentNotFound
		}
		if err != nil {
			return fmt.Errorf("lock comment: %w", err)
		}

		if err := mutate(&c); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE comments SET content = $2, updated_at = $3 WHERE id = $1`,
			c.ID, c.Content, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update comment: %w", err)
		}

		updated = c
		return nil
	})
	if err != nil {
		return model.Comment{}, err
	}
	return updated, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string, check func(model.Comment) error) error {
	if !validID(id) {
		return model.ErrCommentNotFound
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := scanComment(tx.QueryRow(ctx, selectCommentSQL+` WHERE c.id = $1 FOR UPDATE OF c`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrCommentNotFound
		}
		if err != nil {
			return fmt.Errorf("lock comment: %w", err)
		}

		if err := check(c); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		return nil
	})
}
