package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-blog-api/internal/model"
	"go-blog-api/internal/policy"
	"go-blog-api/internal/util"
	"go-blog-api/pkg/apierror"
)

type CommentService = ResourceService[model.Comment, model.CommentInput]

func NewCommentService(store ResourceStore[model.Comment], posts PostFinder) *CommentService {
	return &CommentService{
		store: store,
		now:   time.Now,
		kind: resourceKind[model.Comment, model.CommentInput]{
			name:     "comment",
			notFound: model.ErrCommentNotFound,
			kind:     policy.KindComment,
			subject:  policy.Comment,
			build: func(ctx context.Context, actor model.Actor, in model.CommentInput) (model.Comment, error) {
				return buildComment(ctx, posts, actor, in)
			},
			apply: applyComment,
			stamp: func(c *model.Comment, id string, now time.Time) {
				c.ID, c.CreatedAt, c.UpdatedAt = id, now, now
			},
			touch: func(c *model.Comment, now time.Time) { c.UpdatedAt = now },
		},
	}
}

func buildComment(ctx context.Context, posts PostFinder, actor model.Actor, in model.CommentInput) (model.Comment, error) {
	postID := ""
	if in.PostID != nil {
		postID = strings.TrimSpace(*in.PostID)
	}
	if postID == "" {
		return model.Comment{}, apierror.FieldError("post_id", "this field is required")
	}

	post, err := posts.FindByID(ctx, postID)
	if errors.Is(err, model.ErrPostNotFound) {
		return model.Comment{}, apierror.FieldError("post_id", "post does not exist")
	}
	if err != nil {
		return model.Comment{}, err
	}

	c := model.Comment{PostID: post.ID, AuthorID: actor.ID, PostAuthorID: post.AuthorID}
	if err := applyComment(&c, model.CommentInput{Content: in.Content}, false); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

// applyComment updates the content. post_id may be repeated but not changed.
func applyComment(c *model.Comment, in model.CommentInput, partial bool) error {
	fields := map[string]string{}

	if in.PostID != nil && c.PostID != "" && strings.TrimSpace(*in.PostID) != c.PostID {
		fields["post_id"] = "cannot be changed"
	}

	if in.Content != nil {
		content := util.NormalizeContent(*in.Content)
		if reason := util.LengthViolation(content, model.CommentContentMinLength, model.CommentContentMaxLength); reason != "" {
			fields["content"] = reason
		}
		c.Content = content
	} else if !partial {
		fields["content"] = "this field is required"
	}

	if len(fields) > 0 {
		return apierror.Validation("invalid comment", fields)
	}
	return nil
}
