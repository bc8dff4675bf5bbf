package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-blog-api/internal/model"
	"go-blog-api/internal/policy"
	"go-blog-api/pkg/apierror"
)

type UserService struct {
	users      UserStore
	bcryptCost int
	now        func() time.Time
}

func NewUserService(users UserStore, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost, now: time.Now}
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("user", id)
	}
	return user, err
}

// Update changes a profile. With partial=false username and email are
// required; password and role are always optional.
func (s *UserService) Update(ctx context.Context, actor model.Actor, id string, in model.ProfileInput, partial bool) (model.User, error) {
	if err := requireActor(actor); err != nil {
		return model.User{}, err
	}

	username, email, err := s.validateProfile(in, partial)
	if err != nil {
		return model.User{}, err
	}

	var passwordHash string
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	updated, err := s.users.Update(ctx, id, func(u *model.User) error {
		allowed := policy.CanModify(actor, policy.Profile(*u))
		policyDecisions.WithLabelValues(string(policy.KindProfile), decision(allowed)).Inc()
		if !allowed {
			return apierror.Permission("you may only modify your own profile")
		}

		if in.Role != nil && *in.Role != u.Role {
			if !actor.IsAdmin() || actor.ID == u.ID {
				return apierror.Permission("you may not change this user's role")
			}
			u.Role = *in.Role
		}
		if username != nil {
			u.Username = *username
		}
		if email != nil {
			u.Email = *email
		}
		if passwordHash != "" {
			u.PasswordHash = passwordHash
		}

		u.UpdatedAt = s.now().UTC()
		return nil
	})
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.NotFound("user", id)
	}
	if err != nil {
		return model.User{}, uniquenessError(err)
	}

	return updated, nil
}

func (s *UserService) validateProfile(in model.ProfileInput, partial bool) (*string, *string, error) {
	fields := map[string]string{}

	var username, email *string
	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		if reason := usernameProblem(v); reason != "" {
			fields["username"] = reason
		}
		username = &v
	} else if !partial {
		fields["username"] = "this field is required"
	}

	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		if reason := emailProblem(v); reason != "" {
			fields["email"] = reason
		}
		email = &v
	} else if !partial {
		fields["email"] = "this field is required"
	}

	if in.Password != nil {
		if reason := passwordProblem(*in.Password); reason != "" {
			fields["password"] = reason
		}
	}
	if in.Role != nil && !model.ValidRole(*in.Role) {
		fields["role"] = "must be user or admin"
	}

	if len(fields) > 0 {
		return nil, nil, apierror.Validation("invalid profile", fields)
	}
	return username, email, nil
}

func decision(allowed bool) string {
	if allowed {
		return "allow"
	}
	return "deny"
}
