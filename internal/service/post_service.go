package service

import (
	"context"
	"time"

	"go-blog-api/internal/model"
	"go-blog-api/internal/policy"
	"go-blog-api/internal/util"
	"go-blog-api/pkg/apierror"
)

type PostService = ResourceService[model.Post, model.PostInput]

func NewPostService(store ResourceStore[model.Post]) *PostService {
	return &PostService{
		store: store,
		now:   time.Now,
		kind: resourceKind[model.Post, model.PostInput]{
			name:     "post",
			notFound: model.ErrPostNotFound,
			kind:     policy.KindPost,
			subject:  policy.Post,
			build:    buildPost,
			apply:    applyPost,
			stamp: func(p *model.Post, id string, now time.Time) {
				p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
			},
			touch: func(p *model.Post, now time.Time) { p.UpdatedAt = now },
		},
	}
}

func buildPost(_ context.Context, actor model.Actor, in model.PostInput) (model.Post, error) {
	p := model.Post{AuthorID: actor.ID}
	if err := applyPost(&p, in, false); err != nil {
		return model.Post{}, err
	}
	return p, nil
}

// applyPost writes the provided fields. is_published is optional even for
// full updates and keeps its current value when omitted.
func applyPost(p *model.Post, in model.PostInput, partial bool) error {
	fields := map[string]string{}

	if in.Title != nil {
		title := util.NormalizeTitle(*in.Title)
		if reason := util.LengthViolation(title, model.TitleMinLength, model.TitleMaxLength); reason != "" {
			fields["title"] = reason
		}
		p.Title = title
	} else if !partial {
		fields["title"] = "this field is required"
	}

	if in.Content != nil {
		content := util.NormalizeContent(*in.Content)
		if reason := util.LengthViolation(content, model.PostContentMinLength, model.PostContentMaxLength); reason != "" {
			fields["content"] = reason
		}
		p.Content = content
	} else if !partial {
		fields["content"] = "this field is required"
	}

	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
	}

	if len(fields) > 0 {
		return apierror.Validation("invalid post", fields)
	}
	return nil
}
