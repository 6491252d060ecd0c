package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewSweepCmd() *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "sweep-expired",
		Short: "Expire pending_deposit bookings whose deposit window has lapsed",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close(context.Background())
			if batch <= 0 {
				batch = a.cfg.SweepBatch
			}
			res, err := a.bookings.ExpireStaleDeposits(cmd.Context(), batch)
			a.log.Info("sweep finished", zap.Int("expired", res.Expired), zap.Int("skipped", res.Skipped), zap.Error(err))
			return err
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "maximum bookings to expire (default SWEEP_BATCH)")
	return cmd
}
