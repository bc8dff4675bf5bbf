// Command createadmin creates a user with the admin role. It is the only
// way to obtain an admin account besides promotion by another admin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"go-blog-api/internal/app"
	"go-blog-api/internal/config"
	"go-blog-api/internal/logger"
	"go-blog-api/internal/model"
	"go-blog-api/internal/service"
	"go-blog-api/pkg/apierror"
)

func main() {
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	passwordStdin := flag.Bool("password-stdin", false, "read the password from stdin instead of ADMIN_PASSWORD")
	flag.Parse()

	if err := run(*username, *email, *passwordStdin); err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			for field, reason := range apiErr.Fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", field, reason)
			}
			os.Exit(2)
		}
		slog.Error("create admin failed", "error", err)
		os.Exit(1)
	}
}

func run(username string, email string, passwordStdin bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogFormat, cfg.LogLevel))

	if cfg.StoreDriver == config.StoreDriverMemory {
		return errors.New("createadmin needs a persistent store; set STORE_DRIVER=postgres")
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if passwordStdin {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := app.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	auth, err := service.NewAuthService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.BcryptCost, backend.Users, backend.Blacklist)
	if err != nil {
		return err
	}

	user, err := auth.CreateUser(ctx, username, email, password, model.RoleAdmin)
	if err != nil {
		return err
	}

	fmt.Printf("admin %q created with id %s\n", user.Username, user.ID)
	return nil
}
