package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	contextutils "github.com/wilforlan/suncture-feedback-board/internal/utils"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HealthCommand returns the command that checks a running server
func HealthCommand(env *Env) *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running server's health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := checkHealth(cmd.Context(), newHealthClient(timeout), server)
			if err != nil {
				red.Fprintf(env.Out, "unhealthy: %v\n", err)
				return err
			}
			if env.JSON {
				return env.writeJSON(body)
			}
			green.Fprintf(env.Out, "%s is %s\n", body["service"], body["status"])
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:"+env.Cfg.Server.Port, "Base URL of the server")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}

func newHealthClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	}
}

func checkHealth(ctx context.Context, client *http.Client, server string) (map[string]interface{}, error) {
	url := strings.TrimRight(server, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "bad server url %q: %v", server, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, contextutils.WrapWithCode(err, contextutils.ErrorCodeServiceUnavailable, "health request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeServiceUnavailable, contextutils.SeverityError,
			fmt.Sprintf("health check returned %d", resp.StatusCode), "")
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, contextutils.WrapError(err, "failed to decode health response")
	}
	return body, nil
}
