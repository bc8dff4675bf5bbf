package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go-blog-api/internal/model"
)

// MemoryStore keeps users, posts and comments in process. It enforces the
// same uniqueness, foreign key and cascade rules as the Postgres schema and
// is used for STORE_DRIVER=memory and in tests.
//
// Update and Delete callbacks run while the store lock is held; they must not
// call back into the store.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]model.User
	posts    map[string]model.Post
	comments map[string]model.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    map[string]model.User{},
		posts:    map[string]model.Post{},
		comments: map[string]model.Comment{},
	}
}

func (s *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: s}
}

func (s *MemoryStore) Posts() *MemoryPostRepository {
	return &MemoryPostRepository{store: s}
}

func (s *MemoryStore) Comments() *MemoryCommentRepository {
	return &MemoryCommentRepository{store: s}
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

type MemoryUserRepository struct {
	store *MemoryStore
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if u, ok := r.findLocked(func(u model.User) bool { return strings.EqualFold(u.Username, strings.TrimSpace(username)) }); ok {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if u, ok := r.findLocked(func(u model.User) bool { return strings.EqualFold(u.Email, strings.TrimSpace(email)) }); ok {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.uniqueLocked(u); err != nil {
		return err
	}
	r.store.users[u.ID] = u
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, id string, mutate func(*model.User) error) (model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	if err := mutate(&u); err != nil {
		return model.User{}, err
	}
	if err := r.uniqueLocked(u); err != nil {
		return model.User{}, err
	}

	r.store.users[id] = u
	return u, nil
}

func (r *MemoryUserRepository) findLocked(match func(model.User) bool) (model.User, bool) {
	for _, u := range r.store.users {
		if match(u) {
			return u, true
		}
	}
	return model.User{}, false
}

// uniqueLocked checks u against every other user, ignoring its own record.
func (r *MemoryUserRepository) uniqueLocked(u model.User) error {
	for _, other := range r.store.users {
		if other.ID == u.ID {
			continue
		}
		if strings.EqualFold(other.Username, u.Username) {
			return model.ErrUsernameTaken
		}
		if strings.EqualFold(other.Email, u.Email) {
			return model.ErrEmailTaken
		}
	}
	return nil
}

type MemoryPostRepository struct {
	store *MemoryStore
}

func (r *MemoryPostRepository) Create(_ context.Context, p model.Post) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[p.AuthorID]; !ok {
		return model.ErrUserNotFound
	}
	r.store.posts[p.ID] = p
	return nil
}

func (r *MemoryPostRepository) FindByID(_ context.Context, id string) (model.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.posts[id]
	if !ok {
		return model.Post{}, model.ErrPostNotFound
	}
	return p, nil
}

func (r *MemoryPostRepository) List(_ context.Context, filter model.ListFilter) ([]model.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	posts := make([]model.Post, 0, len(r.store.posts))
	for _, p := range r.store.posts {
		if filter.AuthorID != "" && p.AuthorID != filter.AuthorID {
			continue
		}
		if filter.Published != nil && p.IsPublished != *filter.Published {
			continue
		}
		posts = append(posts, p)
	}

	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return page(posts, filter), nil
}

func (r *MemoryPostRepository) Update(_ context.Context, id string, mutate func(*model.Post) error) (model.Post, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.posts[id]
	if !ok {
		return model.Post{}, model.ErrPostNotFound
	}
	if err := mutate(&p); err != nil {
		return model.Post{}, err
	}

	r.store.posts[id] = p
	return p, nil
}

func (r *MemoryPostRepository) Delete(_ context.Context, id string, check func(model.Post) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	p, ok := r.store.posts[id]
	if !ok {
		return model.ErrPostNotFound
	}
	if err := check(p); err != nil {
		return err
	}

	delete(r.store.posts, id)
	for commentID, c := range r.store.comments {
		if c.PostID == id {
			delete(r.store.comments, commentID)
		}
	}
	return nil
}

type MemoryCommentRepository struct {
	store *MemoryStore
}

func (r *MemoryCommentRepository) Create(_ context.Context, c model.Comment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.posts[c.PostID]; !ok {
		return model.ErrPostNotFound
	}
	if _, ok := r.store.users[c.AuthorID]; !ok {
		return model.ErrUserNotFound
	}

	c.PostAuthorID = ""
	r.store.comments[c.ID] = c
	return nil
}

func (r *MemoryCommentRepository) FindByID(_ context.Context, id string) (model.Comment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.comments[id]
	if !ok {
		return model.Comment{}, model.ErrCommentNotFound
	}
	return r.withPostAuthorLocked(c), nil
}

func (r *MemoryCommentRepository) List(_ context.Context, filter model.ListFilter) ([]model.Comment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	comments := make([]model.Comment, 0)
	for _, c := range r.store.comments {
		if filter.PostID != "" && c.PostID != filter.PostID {
			continue
		}
		if filter.AuthorID != "" && c.AuthorID != filter.AuthorID {
			continue
		}
		comments = append(comments, r.withPostAuthorLocked(c))
	}

	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return page(comments, filter), nil
}

func (r *MemoryCommentRepository) Update(_ context.Context, id string, mutate func(*model.Comment) error) (model.Comment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.comments[id]
	if !ok {
		return model.Comment{}, model.ErrCommentNotFound
	}
	c = r.withPostAuthorLocked(c)
	if err := mutate(&c); err != nil {
		return model.Comment{}, err
	}

	stored := c
	stored.PostAuthorID = ""
	r.store.comments[id] = stored
	return c, nil
}

func (r *MemoryCommentRepository) Delete(_ context.Context, id string, check func(model.Comment) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	c, ok := r.store.comments[id]
	if !ok {
		return model.ErrCommentNotFound
	}
	if err := check(r.withPostAuthorLocked(c)); err != nil {
		return err
	}

	delete(r.store.comments, id)
	return nil
}

func (r *MemoryCommentRepository) withPostAuthorLocked(c model.Comment) model.Comment {
	c.PostAuthorID = r.store.posts[c.PostID].AuthorID
	return c
}

func page[T any](items []T, filter model.ListFilter) []T {
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return items[:0]
		}
		items = items[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}
	return items
}
