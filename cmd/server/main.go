// Cardiac companion chat server.
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/cardiacare/server/internal/api"
	"github.com/cardiacare/server/internal/config"
	"github.com/cardiacare/server/internal/foundry"
	"github.com/cardiacare/server/internal/middleware"
	"github.com/cardiacare/server/internal/orchestration"
	"github.com/cardiacare/server/internal/store"
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

	// Remote agent platform client.
	platform, err := foundry.NewClient(
		cfg.Foundry.Endpoint,
		foundry.StaticToken(cfg.Foundry.APIKey),
		foundry.WithAPIVersion(cfg.Foundry.APIVersion),
	)
	if err != nil {
		slog.Error("Failed to initialize agent platform client", "error", err)
		os.Exit(1)
	}

	// Routing core.
	registry, err := orchestration.NewRegistry(orchestration.RegistryConfig{
		NursingAgentID:    cfg.Foundry.NursingAgentID,
		ExerciseAgentID:   cfg.Foundry.ExerciseAgentID,
		DietAgentID:       cfg.Foundry.DietAgentID,
		MedicationAgentID: cfg.Foundry.MedicationAgentID,
	})
	if err != nil {
		slog.Error("Failed to build agent registry", "error", err)
		os.Exit(1)
	}

	threads := orchestration.NewThreadManager(platform, cfg.Orchestration.ThreadTTL)
	invoker := orchestration.NewInvoker(platform, cfg.Orchestration.PollInterval, cfg.Orchestration.PollMaxAttempts)
	coordinator, err := orchestration.NewCoordinator(
		orchestration.NewClassifier(),
		registry,
		threads,
		invoker,
		cfg.Orchestration.ConfidenceThreshold,
		cfg.Orchestration.AdequacyThreshold,
	)
	if err != nil {
		slog.Error("Failed to build orchestration coordinator", "error", err)
		os.Exit(1)
	}
	slog.Info("Orchestration ready", "specialists", len(registry.All()))

	handler := api.NewHandler(repo, coordinator)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Drop idle conversation threads in the background.
	orchestration.StartSweepWorker(ctx, threads, cfg.Orchestration.ThreadTTL)

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

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}
