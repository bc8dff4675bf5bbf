package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-blog-api/internal/middleware"
	"go-blog-api/internal/model"
	"go-blog-api/pkg/apierror"
)

const maxListLimit = 100

func actorFromRequest(r *http.Request) model.Actor {
	return middleware.ActorFromContext(r.Context())
}

// listFilterFromQuery reads author_id, post_id, is_published, limit and
// offset. Unknown parameters are ignored.
func listFilterFromQuery(r *http.Request) (model.ListFilter, error) {
	query := r.URL.Query()
	filter := model.ListFilter{
		AuthorID: strings.TrimSpace(query.Get("author_id")),
		PostID:   strings.TrimSpace(query.Get("post_id")),
	}

	fields := map[string]string{}

	if raw := strings.TrimSpace(query.Get("is_published")); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			fields["is_published"] = "must be true or false"
		} else {
			filter.Published = &published
		}
	}

	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			fields["limit"] = "must be a non-negative integer"
		}
		filter.Limit = min(limit, maxListLimit)
	}

	if raw := strings.TrimSpace(query.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			fields["offset"] = "must be a non-negative integer"
		}
		filter.Offset = offset
	}

	if len(fields) > 0 {
		return model.ListFilter{}, apierror.Validation("invalid query parameters", fields)
	}
	return filter, nil
}

func listMeta(filter model.ListFilter, count int) *model.Meta {
	return &model.Meta{Limit: filter.Limit, Offset: filter.Offset, Count: count}
}
