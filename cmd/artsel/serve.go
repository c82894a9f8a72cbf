package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Sternrassler/artsel/internal/httpapi"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection view as a JSON HTTP API",
		Example: `  # Start server on the configured address (default :8080)
  artsel serve

  # Share selections between instances through redis
  ARTSEL_SELECTION_BACKEND=redis artsel serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger, closeLog, err := setupLogging(cfg.Logging, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ctrl.Reload(ctx); err != nil {
				logger.Warn().Err(err).Msg("Initial page load failed; serving without records")
			}

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           httpapi.New(a.ctrl, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info().
					Str("addr", cfg.Server.Addr).
					Str("backend", string(cfg.Selection.Backend)).
					Str("user_agent", cfg.API.UserAgent).
					Msg("Starting artsel API server")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info().Msg("Shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("Server shutdown failed")
					return err
				}
				logger.Info().Msg("Server stopped")
				return nil
			case err := <-serverErr:
				logger.Error().Err(err).Msg("Server failed")
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
