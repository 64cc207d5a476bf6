package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/config"
	"github.com/nekogravitycat/daycare-sub-backend/internal/db"
	"github.com/nekogravitycat/daycare-sub-backend/internal/logging"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
)

// App holds the dependencies shared by every command.
type App struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var cli *App

func main() {
	rootCmd := &cobra.Command{
		Use:           "server",
		Short:         "Daycare substitute staffing backend",
		Long:          `HTTP API for organizations to post substitute shifts and for staff to claim, work and verify them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cli == nil {
				return
			}
			if cli.pool != nil {
				cli.pool.Close()
			}
			if cli.logger != nil {
				_ = cli.logger.Sync()
			}
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(grantPlatformAdminCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// initApp loads config, builds the logger and connects the database.
func initApp(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.IsProduction, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := request.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}

	cli = &App{cfg: cfg, pool: pool, logger: logger}
	return nil
}
