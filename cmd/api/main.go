package main

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

	"github.com/go-notification-api/internal/application/notification"
	"github.com/go-notification-api/internal/config"
	"github.com/go-notification-api/internal/domain"
	"github.com/go-notification-api/internal/infrastructure/dynamo"
	"github.com/go-notification-api/internal/infrastructure/identity"
	jwtinfra "github.com/go-notification-api/internal/infrastructure/jwt"
	"github.com/go-notification-api/internal/infrastructure/smtp"
	"github.com/go-notification-api/internal/infrastructure/sqlstore"
	"github.com/go-notification-api/internal/pkg/logging"
	transporthttp "github.com/go-notification-api/internal/transport/http"
	"github.com/go-notification-api/internal/transport/http/handler"
	"github.com/joho/godotenv"
)

type identityClient interface {
	notification.IdentityLookup
	Connect(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stdout, cfg.AppEnv, cfg.LogLevel))
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	deps := notification.ServiceDeps{
		ListScope:          domain.ListScope(cfg.ListScope),
		ListIncludeDeleted: cfg.ListIncludeDeleted,
		LookupConcurrency:  cfg.LookupConcurrency,
		LookupTimeout:      cfg.IdentityTimeout,
	}
	checks := map[string]handler.Check{}

	switch cfg.StoreDriver {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return err
		}
		// Tables are created if missing, so a fresh LocalStack works out of the box.
		if err := dynamo.Bootstrap(ctx, client, cfg.DynamoTables); err != nil {
			slog.Warn("dynamo bootstrap incomplete", "err", err)
		}
		recipients := dynamo.NewRecipientRepo(client, cfg.DynamoTables.Recipients)
		notifications := dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications, recipients)
		deps.NotificationRepo, deps.RecipientRepo = notifications, recipients
		checks["store"] = notifications.Ping
	case string(sqlstore.SQLite), string(sqlstore.Postgres):
		db, err := sqlstore.Open(ctx, sqlstore.Dialect(cfg.StoreDriver), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		deps.NotificationRepo, deps.RecipientRepo = sqlstore.NewNotificationRepo(db), sqlstore.NewRecipientRepo(db)
		checks["store"] = db.Ping
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	var idc identityClient
	switch cfg.IdentityTransport {
	case "redis":
		idc = identity.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.IdentityQueue, cfg.IdentityTimeout)
	case "http":
		idc = identity.NewHTTPClient(cfg.IdentityURL, cfg.IdentityTimeout)
	default:
		return fmt.Errorf("unknown IDENTITY_TRANSPORT %q", cfg.IdentityTransport)
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.IdentityTimeout)
	err := idc.Connect(connectCtx)
	cancel()
	if err != nil {
		// The HTTP transport recovers on its own; lookups fail until it does.
		if cfg.IdentityTransport == "redis" {
			return err
		}
		slog.Warn("identity service not reachable", "url", cfg.IdentityURL, "err", err)
	}
	defer idc.Close()
	deps.Identity = idc
	checks["identity"] = idc.Ping

	renderer, err := smtp.NewRenderer(cfg.TemplatesDir)
	if err != nil {
		return err
	}
	deps.Renderer = renderer
	deps.Mailer = smtp.NewMailer(cfg)

	// Bearer verification is optional; without a key every caller is anonymous.
	var verifier *jwtinfra.Verifier
	if cfg.JWTPublicKeyPath != "" {
		v, err := jwtinfra.NewVerifier(cfg.JWTPublicKeyPath)
		if err != nil {
			return err
		}
		verifier = v
	}

	routerDeps := &transporthttp.Deps{
		Notifications: notification.NewService(deps),
		Checks:        checks,
	}
	if verifier != nil {
		routerDeps.Verifier = verifier
	}
	router := transporthttp.NewRouter(cfg, routerDeps)
	defer router.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreDriver, "identity", cfg.IdentityTransport)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
