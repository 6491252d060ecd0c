package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/charter-booking/internal/notifier"
	"github.com/iliyamo/charter-booking/internal/queue"
)

// runConsumer blocks until SIGINT or SIGTERM.
func runConsumer(ctx context.Context, c *queue.Consumer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func NewNotifyWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify-worker",
		Short: "Deliver guest and captain notifications for booking events",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			d := notifier.NewDispatcher(notifier.LogGateway{Log: a.log}, a.log)
			c := queue.NewConsumer(a.cfg.RabbitURL, queue.Binding{
				Exchange:    a.cfg.EventExchange,
				Queue:       a.cfg.NotifyQueue,
				RoutingKeys: []string{"booking.#"},
				Prefetch:    a.cfg.ConsumerPrefetch,
			}, d.Handle, a.log)
			a.log.Info("notify worker started", zap.String("queue", a.cfg.NotifyQueue))
			return runConsumer(cmd.Context(), c)
		},
	}
}

func NewPaymentWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payment-worker",
		Short: "Apply payment processor results to bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			c := queue.NewConsumer(a.cfg.RabbitURL, queue.Binding{
				Exchange:    a.cfg.PaymentExchange,
				Queue:       a.cfg.PaymentQueue,
				RoutingKeys: []string{"payment.*"},
				Prefetch:    a.cfg.ConsumerPrefetch,
			}, a.bookings.HandlePaymentMessage, a.log)
			a.log.Info("payment worker started", zap.String("queue", a.cfg.PaymentQueue))
			return runConsumer(cmd.Context(), c)
		},
	}
}
