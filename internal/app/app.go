package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-blog-api/internal/config"
	"go-blog-api/internal/handler"
	"go-blog-api/internal/middleware"
	"go-blog-api/internal/router"
	"go-blog-api/internal/service"
)

type App struct {
	server  *http.Server
	backend *Backend
}

func New(cfg *config.Config) (*App, error) {
	backend, err := OpenBackend(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	appRouter, err := NewHandler(cfg, backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, backend: backend}, nil
}

// NewHandler builds the services and the HTTP router on top of backend.
func NewHandler(cfg *config.Config, backend *Backend) (http.Handler, error) {
	authService, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.BcryptCost, backend.Users, backend.Blacklist)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	userService := service.NewUserService(backend.Users, cfg.BcryptCost)
	postService := service.NewPostService(backend.Posts)
	commentService := service.NewCommentService(backend.Comments, backend.Posts)

	return router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
		Auth:    handler.NewAuthHandler(authService, userService),
		User:    handler.NewUserHandler(userService),
		Post:    handler.NewPostHandler(postService),
		Comment: handler.NewCommentHandler(commentService),
		Health:  handler.NewHealthHandler(backend.Checks),
	}), nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		a.backend.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.backend.Close()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
