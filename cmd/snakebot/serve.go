package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	httpserver "github.com/fyrsmithlabs/snakebot/internal/http"
	"github.com/fyrsmithlabs/snakebot/internal/notify"
	"github.com/fyrsmithlabs/snakebot/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

// serveCmd runs the HTTP API for the web frontend
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game API for the web frontend",
	Long: `Serve the game over HTTP. Games run in the background; the frontend
submits dice values and collision confirmations and follows the game over a
websocket (/ws) or, with NATS enabled, server-sent events
(/api/v1/game/events).

Examples:
  # Serve on the configured address
  snakebot serve

  # Serve on another port
  SNAKEBOT_SERVER_PORT=8080 snakebot serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	zl := a.logger.Underlying()
	hub := notify.NewHub(zl)
	sinks := notify.Fanout{hub, notify.NewLogNotifier(a.logger)}
	if a.publisher != nil {
		sinks = append(sinks, a.publisher)
	}

	runner := service.NewRunner(a.factory(sinks), zl)

	opts := []httpserver.Option{
		httpserver.WithBaseContext(ctx),
		httpserver.WithMetrics(httpserver.NewHTTPMetrics(zl)),
	}
	if a.natsConn != nil {
		opts = append(opts, httpserver.WithNATS(a.natsConn, cfg.NATS.SubjectPrefix))
	}
	if a.store != nil {
		opts = append(opts, httpserver.WithHistory(a.store))
	}

	srv, err := httpserver.NewServer(runner, hub, zl, &httpserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	a.logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"),
		zap.Bool("sse_enabled", a.natsConn != nil))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn(shutdownCtx, "http shutdown failed", zap.Error(err))
	}

	// ctx is canceled by now, so a waiting game unblocks and returns
	cancel()
	runner.Wait()
	return nil
}
