package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/database"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close(context.Background())
			return runMigrations(cmd.Context(), a)
		},
	}
}

func runMigrations(ctx context.Context, a *app) error {
	applied, err := database.Migrate(ctx, a.db)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	a.log.Info("migrations applied", zap.Strings("files", applied))
	return nil
}
