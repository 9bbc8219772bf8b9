// Package main provides the entry point for the feedback board backend server.
// It loads configuration, wires the services and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/di"
	"github.com/wilforlan/suncture-feedback-board/internal/handlers"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/gin-gonic/gin"
)

// Application encapsulates the main application logic and can be tested
type Application struct {
	container di.ServiceContainerInterface
	server    *http.Server
}

// NewApplication creates a new application instance
func NewApplication(container di.ServiceContainerInterface) (*Application, error) {
	feedbackService, err := container.GetFeedbackService()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get feedback service")
	}

	feedbackBoard, err := container.GetBoard()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get board")
	}

	aggregator, err := container.GetLeaderboard()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to get leaderboard")
	}

	var opts []handlers.RouterOption
	if refresher, err := container.GetRefresher(); err == nil {
		opts = append(opts, handlers.WithBoardRefresher(refresher))
	}

	cfg := container.GetConfig()
	router := handlers.NewRouter(cfg, feedbackService, feedbackBoard, aggregator, container.GetLogger(), opts...)

	return &Application{
		container: container,
		server: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: config.DefaultHTTPTimeout,
		},
	}, nil
}

// Run serves until the listener fails or Shutdown is called
func (a *Application) Run() error {
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return contextutils.WrapError(err, "server failed")
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the container
func (a *Application) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		return contextutils.WrapError(err, "failed to stop http server")
	}
	return a.container.Shutdown(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, cfg.OpenTelemetry.ServiceName, observability.ParseLevel(cfg.Server.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
		defer cancel()
		observability.Shutdown(shutdownCtx, tp, mp, logger)
	}()

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info(ctx, "Starting feedback board service", map[string]interface{}{
		"port":         cfg.Server.Port,
		"log_level":    cfg.Server.LogLevel,
		"store":        cfg.Store.Driver,
		"serialPrefix": cfg.Feedback.SerialPrefix,
	})

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err)
		os.Exit(1)
	}

	app, err := NewApplication(container)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err)
		_ = container.Shutdown(context.Background())
		os.Exit(1)
	}

	if refresher, err := container.GetRefresher(); err == nil {
		go refresher.Start(ctx)
	}

	appErr := make(chan error, 1)
	go func() {
		appErr <- app.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully")
	case err := <-appErr:
		if err != nil {
			logger.Error(ctx, "Application failed", err)
			_ = container.Shutdown(context.Background())
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err)
		return
	}

	logger.Info(ctx, "Shutdown completed successfully")
}
