package main

import (
	"cadence/internal/clock"
	"cadence/internal/score/scorer"
	"cadence/internal/server"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scoring API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadConfig(*configPath, os.Stdout)
			if err != nil {
				return err
			}

			appCtx, appCancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer appCancel()

			svc, err := buildServices(config, clock.SystemClock{})
			if err != nil {
				return err
			}
			defer svc.Close()

			router := server.NewApiV1Router(
				svc.userScorer,
				scorer.NewBatchScorer(svc.userScorer, config.Scoring.BatchConcurrency),
				svc.repo,
				server.NewObservability("cadence"),
				server.NewRateLimiter(config.Server.RateLimit.RequestsPerMinute, config.Server.RateLimit.Burst),
			)
			srv := server.NewServer(config.Server.Address, router, config.Server.ReadTimeout, config.Server.WriteTimeout)

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- srv.ListenAndServe()
			}()
			slog.Info("Server listening", "address", config.Server.Address, "storage", config.Storage.Driver)

			select {
			case <-appCtx.Done():
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("Server shutdown", "error", err)
			}
			slog.Info("Server stopped")
			return nil
		},
	}
}
