package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-blog-api/internal/model"
	"go-blog-api/pkg/apierror"
)

var longContent = "the quick brown fox jumps over the lazy dog and keeps running far away"

func ptr[T any](v T) *T {
	return &v
}

func postInput(title string, content string) model.PostInput {
	return model.PostInput{Title: ptr(title), Content: ptr(content)}
}

func TestPostServiceLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t, nil)
	alice, _ := env.register(t)
	bob, _ := env.register(t)
	admin := env.admin(t)

	post, err := env.posts.Create(ctx, alice.Actor(), postInput("  new idea ", longContent))
	require.NoError(t, err)

	t.Run("create normalizes and assigns the author", func(t *testing.T) {
		require.Equal(t, "New Idea", post.Title)
		require.Equal(t, "The quick brown fox"+longContent[len("the quick brown fox"):], post.Content)
		require.Equal(t, alice.ID, post.AuthorID)
		require.False(t, post.IsPublished)
		require.NotEmpty(t, post.ID)
		require.Equal(t, post.CreatedAt, post.UpdatedAt)
	})

	t.Run("retrieve is public", func(t *testing.T) {
		got, err := env.posts.Retrieve(ctx, post.ID)
		require.NoError(t, err)
		require.Equal(t, post, got)
	})

	t.Run("other users cannot update or delete", func(t *testing.T) {
		_, err := env.posts.Update(ctx, bob.Actor(), post.ID, model.PostInput{Title: ptr("Hijacked")}, true)
		require.ErrorIs(t, err, apierror.ErrPermission)

		require.ErrorIs(t, env.posts.Delete(ctx, bob.Actor(), post.ID), apierror.ErrPermission)

		got, err := env.posts.Retrieve(ctx, post.ID)
		require.NoError(t, err)
		require.Equal(t, "New Idea", got.Title)
	})

	t.Run("anonymous actors cannot write", func(t *testing.T) {
		_, err := env.posts.Create(ctx, model.Actor{}, postInput("Title", longContent))
		require.ErrorIs(t, err, apierror.ErrToken)

		_, err = env.posts.Update(ctx, model.Actor{}, post.ID, model.PostInput{Title: ptr("Nope")}, true)
		require.ErrorIs(t, err, apierror.ErrToken)
	})

	t.Run("admin may update but authorship is kept", func(t *testing.T) {
		before, err := env.posts.Retrieve(ctx, post.ID)
		require.NoError(t, err)

		env.posts.now = func() time.Time { return before.UpdatedAt.Add(time.Minute) }
		t.Cleanup(func() { env.posts.now = time.Now })

		updated, err := env.posts.Update(ctx, admin.Actor(), post.ID, model.PostInput{IsPublished: ptr(true)}, true)
		require.NoError(t, err)
		require.True(t, updated.IsPublished)
		require.Equal(t, alice.ID, updated.AuthorID)
		require.Equal(t, before.CreatedAt, updated.CreatedAt)
		require.True(t, updated.UpdatedAt.After(before.UpdatedAt))
	})

	t.Run("full update requires every writable field", func(t *testing.T) {
		_, err := env.posts.Update(ctx, alice.Actor(), post.ID, model.PostInput{Title: ptr("Only A Title")}, false)
		requireFieldError(t, err, "content")
	})

	t.Run("bounds are checked after trimming", func(t *testing.T) {
		_, err := env.posts.Update(ctx, alice.Actor(), post.ID, model.PostInput{Title: ptr("   ab   ")}, true)
		requireFieldError(t, err, "title")

		_, err = env.posts.Create(ctx, alice.Actor(), postInput("Fine Title", "  too short  "))
		requireFieldError(t, err, "content")

		_, err = env.posts.Create(ctx, alice.Actor(), postInput(strings.Repeat("a", 201), longContent))
		requireFieldError(t, err, "title")
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := env.posts.Retrieve(ctx, "does-not-exist")
		require.ErrorIs(t, err, apierror.ErrNotFound)

		_, err = env.posts.Update(ctx, alice.Actor(), "does-not-exist", model.PostInput{Title: ptr("Whatever")}, true)
		require.ErrorIs(t, err, apierror.ErrNotFound)
	})
}

func TestPostServiceList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t, nil)
	alice, _ := env.register(t)
	bob, _ := env.register(t)

	for i := 0; i < 3; i++ {
		_, err := env.posts.Create(ctx, alice.Actor(), postInput("Alice Post", longContent))
		require.NoError(t, err)
	}
	published, err := env.posts.Create(ctx, bob.Actor(), model.PostInput{Title: ptr("Bob Post"), Content: ptr(longContent), IsPublished: ptr(true)})
	require.NoError(t, err)

	all, err := env.posts.List(ctx, model.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)

	byAlice, err := env.posts.List(ctx, model.ListFilter{AuthorID: alice.ID})
	require.NoError(t, err)
	require.Len(t, byAlice, 3)

	onlyPublished, err := env.posts.List(ctx, model.ListFilter{Published: ptr(true)})
	require.NoError(t, err)
	require.Equal(t, []model.Post{published}, onlyPublished)

	paged, err := env.posts.List(ctx, model.ListFilter{Limit: 2, Offset: 3})
	require.NoError(t, err)
	require.Len(t, paged, 1)

	none, err := env.posts.List(ctx, model.ListFilter{AuthorID: "nobody"})
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestCommentServiceRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t, nil)
	alice, _ := env.register(t)
	bob, _ := env.register(t)
	carol, _ := env.register(t)

	post, err := env.posts.Create(ctx, alice.Actor(), postInput("Discussion", longContent))
	require.NoError(t, err)

	comment := func(t *testing.T, actor model.Actor) model.Comment {
		t.Helper()
		c, err := env.notes.Create(ctx, actor, model.CommentInput{PostID: ptr(post.ID), Content: ptr("  nice post!  ")})
		require.NoError(t, err)
		return c
	}

	t.Run("create normalizes content", func(t *testing.T) {
		c := comment(t, bob.Actor())
		require.Equal(t, "Nice post!", c.Content)
		require.Equal(t, bob.ID, c.AuthorID)
		require.Equal(t, post.ID, c.PostID)
	})

	t.Run("requires an existing post", func(t *testing.T) {
		_, err := env.notes.Create(ctx, bob.Actor(), model.CommentInput{PostID: ptr("missing"), Content: ptr("hello there")})
		requireFieldError(t, err, "post_id")

		_, err = env.notes.Create(ctx, bob.Actor(), model.CommentInput{Content: ptr("hello there")})
		requireFieldError(t, err, "post_id")
	})

	t.Run("content bounds", func(t *testing.T) {
		_, err := env.notes.Create(ctx, bob.Actor(), model.CommentInput{PostID: ptr(post.ID), Content: ptr("  hey ")})
		requireFieldError(t, err, "content")
	})

	t.Run("author may edit but not move the comment", func(t *testing.T) {
		c := comment(t, bob.Actor())

		updated, err := env.notes.Update(ctx, bob.Actor(), c.ID, model.CommentInput{Content: ptr("edited text")}, false)
		require.NoError(t, err)
		require.Equal(t, "Edited text", updated.Content)

		_, err = env.notes.Update(ctx, bob.Actor(), c.ID, model.CommentInput{PostID: ptr("elsewhere")}, true)
		requireFieldError(t, err, "post_id")

		_, err = env.notes.Update(ctx, bob.Actor(), c.ID, model.CommentInput{PostID: ptr(post.ID), Content: ptr("same post")}, false)
		require.NoError(t, err)
	})

	t.Run("post owner may moderate, strangers may not", func(t *testing.T) {
		c := comment(t, bob.Actor())

		require.ErrorIs(t, env.notes.Delete(ctx, carol.Actor(), c.ID), apierror.ErrPermission)

		_, err := env.notes.Update(ctx, carol.Actor(), c.ID, model.CommentInput{Content: ptr("vandalized")}, true)
		require.ErrorIs(t, err, apierror.ErrPermission)

		require.NoError(t, env.notes.Delete(ctx, alice.Actor(), c.ID))

		_, err = env.notes.Retrieve(ctx, c.ID)
		require.ErrorIs(t, err, apierror.ErrNotFound)
	})

	t.Run("deleting a post removes its comments", func(t *testing.T) {
		other, err := env.posts.Create(ctx, carol.Actor(), postInput("Short Lived", longContent))
		require.NoError(t, err)

		c, err := env.notes.Create(ctx, bob.Actor(), model.CommentInput{PostID: ptr(other.ID), Content: ptr("first comment")})
		require.NoError(t, err)

		require.NoError(t, env.posts.Delete(ctx, carol.Actor(), other.ID))

		_, err = env.notes.Retrieve(ctx, c.ID)
		require.ErrorIs(t, err, apierror.ErrNotFound)

		remaining, err := env.notes.List(ctx, model.ListFilter{PostID: other.ID})
		require.NoError(t, err)
		require.Empty(t, remaining)

		require.ErrorIs(t, env.posts.Delete(ctx, carol.Actor(), other.ID), apierror.ErrNotFound)
	})
}

func TestPostServiceConcurrentUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	env := newTestEnv(t, nil)
	alice, _ := env.register(t)
	bob, _ := env.register(t)

	post, err := env.posts.Create(ctx, alice.Actor(), postInput("Contested", longContent))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		actor := alice.Actor()
		if i%2 == 1 {
			actor = bob.Actor()
		}

		wg.Add(1)
		go func(actor model.Actor) {
			defer wg.Done()
			_, err := env.posts.Update(ctx, actor, post.ID, model.PostInput{IsPublished: ptr(true)}, true)
			if actor.ID == alice.ID {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apierror.ErrPermission)
			}
		}(actor)
	}
	wg.Wait()

	got, err := env.posts.Retrieve(ctx, post.ID)
	require.NoError(t, err)
	require.True(t, got.IsPublished)
	require.Equal(t, alice.ID, got.AuthorID)
}
