package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"go-blog-api/internal/model"
	"go-blog-api/internal/policy"
	"go-blog-api/pkg/apierror"
)

// resourceKind describes how one resource type is created, modified and
// authorized. T is the stored record and In the client input.
type resourceKind[T any, In any] struct {
	name     string
	notFound error
	kind     policy.Kind
	subject  func(T) policy.Resource

	// build validates input for a new record authored by actor. It must
	// not assign the id or timestamps.
	build func(ctx context.Context, actor model.Actor, in In) (T, error)

	// apply writes normalized input onto an existing record and
	// re-validates it. partial=false requires every writable field.
	apply func(item *T, in In, partial bool) error

	// stamp assigns identity and timestamps.
	stamp func(item *T, id string, now time.Time)
	touch func(item *T, now time.Time)
}

// ResourceService implements authorization-aware CRUD for one resource kind.
type ResourceService[T any, In any] struct {
	store ResourceStore[T]
	kind  resourceKind[T, In]
	now   func() time.Time
}

func (s *ResourceService[T, In]) Create(ctx context.Context, actor model.Actor, in In) (T, error) {
	var zero T
	if err := requireActor(actor); err != nil {
		return zero, err
	}

	item, err := s.kind.build(ctx, actor, in)
	if err != nil {
		return zero, err
	}
	s.kind.stamp(&item, uuid.NewString(), s.now().UTC())

	if err := s.store.Create(ctx, item); err != nil {
		// The parent post can vanish between build and insert.
		if errors.Is(err, model.ErrPostNotFound) {
			return zero, apierror.FieldError("post_id", "post does not exist")
		}
		return zero, s.translate(err, "")
	}

	slog.Info(s.kind.name+" created", "actor_id", actor.ID)
	return item, nil
}

func (s *ResourceService[T, In]) Retrieve(ctx context.Context, id string) (T, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		var zero T
		return zero, s.translate(err, id)
	}
	return item, nil
}

func (s *ResourceService[T, In]) List(ctx context.Context, filter model.ListFilter) ([]T, error) {
	items, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Update loads, authorizes and modifies the record in one store transaction.
func (s *ResourceService[T, In]) Update(ctx context.Context, actor model.Actor, id string, in In, partial bool) (T, error) {
	var zero T
	if err := requireActor(actor); err != nil {
		return zero, err
	}

	updated, err := s.store.Update(ctx, id, func(item *T) error {
		if err := s.authorize(actor, *item); err != nil {
			return err
		}
		if err := s.kind.apply(item, in, partial); err != nil {
			return err
		}
		s.kind.touch(item, s.now().UTC())
		return nil
	})
	if err != nil {
		return zero, s.translate(err, id)
	}

	return updated, nil
}

func (s *ResourceService[T, In]) Delete(ctx context.Context, actor model.Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}

	err := s.store.Delete(ctx, id, func(item T) error {
		return s.authorize(actor, item)
	})
	if err != nil {
		return s.translate(err, id)
	}

	slog.Info(s.kind.name+" deleted", "id", id, "actor_id", actor.ID)
	return nil
}

func (s *ResourceService[T, In]) authorize(actor model.Actor, item T) error {
	allowed := policy.CanModify(actor, s.kind.subject(item))
	policyDecisions.WithLabelValues(string(s.kind.kind), decision(allowed)).Inc()
	if !allowed {
		return apierror.Permission("you do not have permission to modify this " + s.kind.name)
	}
	return nil
}

// translate maps store sentinels onto API errors; everything else passes
// through unchanged.
func (s *ResourceService[T, In]) translate(err error, id string) error {
	switch {
	case errors.Is(err, s.kind.notFound):
		return apierror.NotFound(s.kind.name, id)
	case errors.Is(err, model.ErrUserNotFound):
		return apierror.Token("user no longer exists")
	default:
		return err
	}
}
