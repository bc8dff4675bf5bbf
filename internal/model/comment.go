package model

import "time"

const (
	CommentContentMinLength = 5
	CommentContentMaxLength = 1000
)

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// PostAuthorID is the owner of the parent post, loaded alongside the
	// comment for moderation checks.
	PostAuthorID string `json:"-"`
}

type CommentInput struct {
	PostID  *string `json:"post_id"`
	Content *string `json:"content"`
}
