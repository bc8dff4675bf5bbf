package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-blog-api/internal/config"
	"go-blog-api/internal/model"
)

const postBody = "this is a long enough body for a blog post, well over fifty characters"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c client) do(method string, path string, token string, body any) (int, envelope) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		ServerPort:       "0",
		RequestTimeout:   5 * time.Second,
		StoreDriver:      config.StoreDriverMemory,
		JWTSecret:        "integration-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    24 * time.Hour,
		BcryptCost:       bcrypt.MinCost,
		AuthRateLimitRPM: 1000,
	}
}

func newTestClient(t *testing.T, cfg *config.Config) client {
	t.Helper()

	backend, err := OpenBackend(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(backend.Close)

	h, err := NewHandler(cfg, backend)
	require.NoError(t, err)

	return client{t: t, handler: h}
}

func (c client) signup(username string) (string, model.TokenPair) {
	c.t.Helper()

	status, env := c.do(http.MethodPost, "/api/v1/auth/register", "", model.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: username + "-password",
	})
	require.Equal(c.t, http.StatusCreated, status)
	registered := decode[model.RegisterResponse](c.t, env)
	require.NotEmpty(c.t, registered.UserID)

	status, env = c.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{
		Username: username,
		Password: username + "-password",
	})
	require.Equal(c.t, http.StatusOK, status)
	return registered.UserID, decode[model.TokenPair](c.t, env)
}

func TestBlogScenario(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())
	aliceID, alice := c.signup("alice")
	_, bob := c.signup("bob")

	var postID string
	t.Run("alice publishes a normalized post", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/posts", alice.AccessToken, map[string]any{
			"title":   "  new idea ",
			"content": postBody,
		})
		require.Equal(t, http.StatusCreated, status)

		post := decode[model.Post](t, env)
		assert.Equal(t, "New Idea", post.Title)
		assert.Equal(t, "T"+postBody[1:], post.Content)
		assert.Equal(t, aliceID, post.AuthorID)
		assert.False(t, post.IsPublished)
		postID = post.ID
	})

	t.Run("anyone can read", func(t *testing.T) {
		status, env := c.do(http.MethodGet, "/api/v1/posts/"+postID, "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "New Idea", decode[model.Post](t, env).Title)

		status, env = c.do(http.MethodGet, "/api/v1/posts?author_id="+aliceID, "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[model.PostList](t, env).Posts, 1)
		require.NotNil(t, env.Meta)
		assert.Equal(t, 1, env.Meta.Count)
	})

	t.Run("writes need a token", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/posts", "", map[string]any{"title": "Nope", "content": postBody})
		require.Equal(t, http.StatusUnauthorized, status)
		assert.False(t, env.Success)
	})

	t.Run("bob cannot edit alice's post", func(t *testing.T) {
		status, env := c.do(http.MethodPut, "/api/v1/posts/"+postID, bob.AccessToken, map[string]any{
			"title":   "Hijacked",
			"content": postBody,
		})
		require.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "FORBIDDEN", env.Error.Code)

		status, _ = c.do(http.MethodDelete, "/api/v1/posts/"+postID, bob.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("alice patches her post", func(t *testing.T) {
		status, env := c.do(http.MethodPatch, "/api/v1/posts/"+postID, alice.AccessToken, map[string]any{"is_published": true})
		require.Equal(t, http.StatusOK, status)
		assert.True(t, decode[model.Post](t, env).IsPublished)

		status, env = c.do(http.MethodPut, "/api/v1/posts/"+postID, alice.AccessToken, map[string]any{"title": "Only title"})
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Contains(t, env.Error.Fields, "content")
	})

	var commentID string
	t.Run("bob comments and alice moderates", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/comments", bob.AccessToken, map[string]any{
			"post_id": postID,
			"content": "great read",
		})
		require.Equal(t, http.StatusCreated, status)
		comment := decode[model.Comment](t, env)
		assert.Equal(t, "Great read", comment.Content)
		commentID = comment.ID

		status, env = c.do(http.MethodGet, "/api/v1/comments?post_id="+postID, "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[model.CommentList](t, env).Comments, 1)

		status, _ = c.do(http.MethodDelete, "/api/v1/comments/"+commentID, alice.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, status)
	})

	t.Run("comments on missing posts are rejected", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/comments", bob.AccessToken, map[string]any{
			"post_id": "00000000-0000-0000-0000-000000000000",
			"content": "hello there",
		})
		require.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, env.Error.Fields, "post_id")
	})

	t.Run("deleting the post removes its comments", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/comments", bob.AccessToken, map[string]any{
			"post_id": postID,
			"content": "second thoughts",
		})
		require.Equal(t, http.StatusCreated, status)
		orphan := decode[model.Comment](t, env)

		status, _ = c.do(http.MethodDelete, "/api/v1/posts/"+postID, alice.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, status)

		status, _ = c.do(http.MethodGet, "/api/v1/posts/"+postID, "", nil)
		require.Equal(t, http.StatusNotFound, status)

		status, env = c.do(http.MethodGet, "/api/v1/comments/"+orphan.ID, "", nil)
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("me and profiles", func(t *testing.T) {
		status, env := c.do(http.MethodGet, "/api/v1/auth/me", alice.AccessToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "alice", decode[model.User](t, env).Username)
		assert.NotContains(t, string(env.Data), "password")

		status, _ = c.do(http.MethodPatch, "/api/v1/users/"+aliceID, bob.AccessToken, map[string]any{"username": "mallory"})
		require.Equal(t, http.StatusForbidden, status)

		status, _ = c.do(http.MethodPatch, "/api/v1/users/"+aliceID, alice.AccessToken, map[string]any{"role": "admin"})
		require.Equal(t, http.StatusForbidden, status)

		status, env = c.do(http.MethodGet, "/api/v1/users/"+aliceID, "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, model.RoleUser, decode[model.User](t, env).Role)
	})
}

func TestAuthEndpoints(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	c := newTestClient(t, cfg)
	_, carol := c.signup("carol")

	t.Run("registration errors are field level", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/auth/register", "", model.RegisterRequest{
			Username: "carol",
			Email:    "not-an-email",
			Password: "whatever-password",
		})
		require.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, env.Error.Fields, "email")

		status, env = c.do(http.MethodPost, "/api/v1/auth/register", "", model.RegisterRequest{
			Username: "CAROL",
			Email:    "carol2@example.com",
			Password: "whatever-password",
		})
		require.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, env.Error.Fields, "username")
	})

	t.Run("bad credentials", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/auth/login", "", model.LoginRequest{Username: "carol", Password: "wrong"})
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "AUTHENTICATION_FAILED", env.Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		c.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("refresh then logout", func(t *testing.T) {
		status, env := c.do(http.MethodPost, "/api/v1/auth/token/refresh", "", model.RefreshRequest{RefreshToken: carol.RefreshToken})
		require.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, decode[model.AccessToken](t, env).AccessToken)

		status, env = c.do(http.MethodPost, "/api/v1/auth/logout", carol.AccessToken, model.RefreshRequest{RefreshToken: carol.RefreshToken})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "successfully logged out", decode[model.MessageResponse](t, env).Message)
		assert.Len(t, mr.Keys(), 1)

		status, env = c.do(http.MethodPost, "/api/v1/auth/token/refresh", "", model.RefreshRequest{RefreshToken: carol.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "TOKEN_INVALID", env.Error.Code)

		status, _ = c.do(http.MethodPost, "/api/v1/auth/logout", carol.AccessToken, model.RefreshRequest{RefreshToken: carol.RefreshToken})
		require.Equal(t, http.StatusOK, status)
	})

	t.Run("logout needs an access token", func(t *testing.T) {
		status, _ := c.do(http.MethodPost, "/api/v1/auth/logout", "", model.RefreshRequest{RefreshToken: carol.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, status)

		status, _ = c.do(http.MethodPost, "/api/v1/auth/logout", carol.RefreshToken, model.RefreshRequest{RefreshToken: carol.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, testConfig())

	status, env := c.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"store":"up"`)

	// Generate at least one labelled request before scraping.
	c.do(http.MethodGet, "/api/v1/posts", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "blog_http_requests_total")

	rec = httptest.NewRecorder()
	c.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
