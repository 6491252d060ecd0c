// Package cli holds the charterctl commands: the API server, the queue
// workers and the operational one-shots.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "charterctl",
		Short:         "Charter trip booking engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewNotifyWorkerCmd())
	cmd.AddCommand(NewPaymentWorkerCmd())
	cmd.AddCommand(NewSweepCmd())
	cmd.AddCommand(NewTokenCmd())
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
