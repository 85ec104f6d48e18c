package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clinboard/clinboard/pkg/cli/config"
	controller "github.com/clinboard/clinboard/pkg/controller/http"
	"github.com/clinboard/clinboard/pkg/service/snapshot"
	"github.com/clinboard/clinboard/pkg/usecase"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		databaseCfg config.Database
		scoringCfg  config.Scoring
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, databaseCfg.Flags()...)
	flags = append(flags, scoringCfg.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting clinboard server",
				slog.String("addr", serverCfg.Addr),
				slog.Any("database", databaseCfg),
				slog.Any("scoring", scoringCfg),
			)

			// Create repository using config
			repo, err := databaseCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			// Load the scoring policy
			policy, err := scoringCfg.Configure(ctx)
			if err != nil {
				return err
			}

			// Create use cases
			cache := snapshot.New(repo, policy.CacheTTL())
			workloadUC := usecase.NewWorkload(repo, cache, policy)
			trendUC := usecase.NewTrend(repo, workloadUC, policy)

			// Create HTTP server
			server, err := controller.NewServer(
				ctx,
				serverCfg.Addr,
				workloadUC,
				trendUC,
				serverCfg.RefreshToken,
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
