package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-blog-api/internal/config"
	"go-blog-api/internal/handler"
	"go-blog-api/internal/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Post    *handler.PostHandler
	Comment *handler.CommentHandler
	Health  *handler.HealthHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := authMiddleware.RequireAuth

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.Post("/token/refresh", h.Auth.Refresh)
			auth.With(requireAuth).Post("/logout", h.Auth.Logout)
			auth.With(requireAuth).Get("/me", h.Auth.Me)
		})

		api.Route("/posts", func(posts chi.Router) {
			posts.Get("/", h.Post.List)
			posts.Get("/{id}", h.Post.Get)
			posts.With(requireAuth).Post("/", h.Post.Create)
			posts.With(requireAuth).Put("/{id}", h.Post.Update)
			posts.With(requireAuth).Patch("/{id}", h.Post.Update)
			posts.With(requireAuth).Delete("/{id}", h.Post.Delete)
		})

		api.Route("/comments", func(comments chi.Router) {
			comments.Get("/", h.Comment.List)
			comments.Get("/{id}", h.Comment.Get)
			comments.With(requireAuth).Post("/", h.Comment.Create)
			comments.With(requireAuth).Put("/{id}", h.Comment.Update)
			comments.With(requireAuth).Patch("/{id}", h.Comment.Update)
			comments.With(requireAuth).Delete("/{id}", h.Comment.Delete)
		})

		api.Route("/users", func(users chi.Router) {
			users.Get("/{id}", h.User.Get)
			users.With(requireAuth).Put("/{id}", h.User.Update)
			users.With(requireAuth).Patch("/{id}", h.User.Update)
		})
	})

	return r
}
