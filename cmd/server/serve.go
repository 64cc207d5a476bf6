package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/app"
	"github.com/nekogravitycat/daycare-sub-backend/internal/db"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			// For receiving Ctrl+C / SIGTERM
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := cli.logger
			if migrate {
				if err := runMigrations(ctx); err != nil {
					return err
				}
			}

			if cli.cfg.IsProduction {
				gin.SetMode(gin.ReleaseMode)
			}

			container, err := app.NewContainer(cli.cfg, cli.pool, cli.logger)
			if err != nil {
				return err
			}

			// Use http.Server for graceful shutdown
			server := &http.Server{
				Addr:    cli.cfg.HTTPAddr,
				Handler: container.Router,
			}

			container.Scheduler.Start()
			defer container.Scheduler.Stop()

			serverErr := make(chan error, 1)
			go func() {
				logger.Info("server running", zap.String("addr", cli.cfg.HTTPAddr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
				close(serverErr)
			}()

			select {
			case err := <-serverErr:
				if err != nil {
					return err
				}
			case <-ctx.Done():
				logger.Info("shutdown signal received")
			}

			// Create a shutdown context with timeout
			shutdownCtx, cancel := context.WithTimeout(context.Background(), app.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server forced to shutdown", zap.Error(err))
			}

			logger.Info("server exited gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving")
	return cmd
}

func runMigrations(ctx context.Context) error {
	applied, err := db.Migrate(ctx, cli.pool)
	for _, name := range applied {
		cli.logger.Info("migration applied", zap.String("name", name))
	}
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		cli.logger.Info("schema up to date")
	}
	return nil
}
