package model

import "time"

const (
	TitleMinLength       = 3
	TitleMaxLength       = 200
	PostContentMinLength = 50
	PostContentMaxLength = 1000
)

type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorID    string    `json:"author_id"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PostInput carries the client-writable fields of a post. Nil fields are
// absent from the request.
type PostInput struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	IsPublished *bool   `json:"is_published"`
}
