// Package main provides the entry point for the feedback board admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/wilforlan/suncture-feedback-board/cmd/adm/commands"
	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Admin runs are short-lived; keep telemetry off and logs quiet
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "feedback-admin", observability.ParseLevel("error"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	env := &commands.Env{Cfg: cfg, Logger: logger, Out: os.Stdout}
	rootCmd := commands.NewRootCommand(env)

	err = rootCmd.ExecuteContext(ctx)
	if closeErr := env.Close(ctx); closeErr != nil {
		logger.Warn(ctx, "Failed to close services", map[string]interface{}{"error": closeErr.Error()})
	}
	observability.Shutdown(ctx, tp, mp, logger)
	if err != nil {
		os.Exit(1)
	}
}
