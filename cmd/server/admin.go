package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/app"
	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/user"
)

func grantPlatformAdminCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "grant-platform-admin",
		Short: "Grant platform admin to a user, creating the account if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users := user.NewService(
				user.NewPgxRepository(cli.pool),
				auth.NewBcryptPasswordHasherWithCost(cli.cfg.BcryptCost),
				app.NewMailer(cli.cfg, cli.logger),
				cli.logger,
				user.Settings{SiteURL: cli.cfg.SiteURL},
			)
			orgs := organization.NewService(organization.NewPgxRepository(cli.pool))

			u, err := users.EnsureUser(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("failed to ensure user: %w", err)
			}

			if err := orgs.GrantPlatformAdmin(cmd.Context(), u.ID); err != nil {
				return fmt.Errorf("failed to grant platform admin: %w", err)
			}

			cli.logger.Info("platform admin granted", zap.String("user_id", u.ID), zap.String("email", u.Email))
			fmt.Printf("%s (%s) is now a platform admin\n", u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the user to promote")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
