package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-blog-api/internal/model"
)

type stubValidator struct {
	claims *model.AuthClaims
	err    error
	gotTyp string
}

func (s *stubValidator) ValidateToken(_ string, expectedType string) (*model.AuthClaims, error) {
	s.gotTyp = expectedType
	return s.claims, s.err
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	t.Run("missing header", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{})
		rec := httptest.NewRecorder()

		mw.RequireAuth(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
	})

	t.Run("rejected token", func(t *testing.T) {
		mw := NewAuthMiddleware(&stubValidator{err: errors.New("expired")})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()

		mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "TOKEN_INVALID")
	})

	t.Run("valid access token exposes the actor", func(t *testing.T) {
		validator := &stubValidator{claims: &model.AuthClaims{UserID: "u1", Role: model.RoleAdmin}}
		mw := NewAuthMiddleware(validator)

		var actor model.Actor
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor = ActorFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer good-token")
		rec := httptest.NewRecorder()
		mw.RequireAuth(next).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "access", validator.gotTyp)
		assert.Equal(t, model.Actor{ID: "u1", Role: model.RoleAdmin}, actor)
	})

	t.Run("no claims means anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.True(t, ActorFromContext(req.Context()).Anonymous())
	})
}
