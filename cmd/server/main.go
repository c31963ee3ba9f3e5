// fieldops - business management backend (missions, equipment, messaging)
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldops/fieldops/internal/api"
	"github.com/fieldops/fieldops/internal/auth"
	"github.com/fieldops/fieldops/internal/config"
	"github.com/fieldops/fieldops/internal/domain"
	"github.com/fieldops/fieldops/internal/middleware"
	"github.com/fieldops/fieldops/internal/relay"
	"github.com/fieldops/fieldops/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := bootstrapAdmin(context.Background(), repo, cfg); err != nil {
		slog.Error("Failed to bootstrap admin user", "error", err)
		os.Exit(1)
	}

	guard := auth.NewGuard(cfg.JWTSecret, cfg.TokenTTL)

	// Notification channel: NATS when configured, in-process otherwise.
	var notifier relay.Notifier
	if cfg.NATSURL != "" {
		natsNotifier, err := relay.NewNATSNotifier(cfg.NATSURL)
		if err != nil {
			slog.Error("Failed to connect to NATS", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer natsNotifier.Close()
		notifier = natsNotifier
		slog.Info("Message notifier ready", "backend", "nats", "url", cfg.NATSURL)
	} else {
		notifier = relay.NewHub()
		slog.Info("Message notifier ready", "backend", "in-process")
	}

	rly := relay.New(repo, notifier)

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, guard, rly, !cfg.IsDevelopment())
	wsHandler := api.NewWSHandler(baseHandler, cfg.FrontendURL, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	corsOrigins := []string{"http://localhost:3000"}
	if cfg.FrontendURL != "" {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	baseHandler.RegisterRoutes(r, guard, wsHandler)

	// Create server.
	// Note: the websocket feed holds connections open, so no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// bootstrapAdmin seeds the manager role and an initial manager account on
// an empty database, so a fresh deployment can log in and create the rest.
func bootstrapAdmin(ctx context.Context, repo store.Repository, cfg *config.Config) error {
	if cfg.AdminIdentifiant == "" {
		return nil
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	role := &domain.Role{Nom: domain.RoleManager}
	if err := repo.CreateRole(ctx, role); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &domain.User{
		Identifiant:  cfg.AdminIdentifiant,
		Nom:          "Admin",
		Prenom:       "Admin",
		Email:        cfg.AdminIdentifiant + "@localhost",
		PasswordHash: string(hash),
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		return err
	}
	if err := repo.AssignRole(ctx, admin.ID, role.ID); err != nil {
		return err
	}

	slog.Info("Bootstrap admin created", "identifiant", admin.Identifiant)
	return nil
}
