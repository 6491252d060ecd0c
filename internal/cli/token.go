package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/charter-booking/internal/config"
	"github.com/iliyamo/charter-booking/internal/utils"
)

// NewTokenCmd mints a captain access token.  Sign-in lives outside this
// service; the command covers operators and local testing.
func NewTokenCmd() *cobra.Command {
	var (
		captainID string
		ttl       time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a captain access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTTTL
			}
			tok, err := utils.NewAccessToken(cfg.JWTSecret, captainID, utils.RoleCaptain, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.Exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&captainID, "captain", "", "captain id (token subject)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_TTL)")
	_ = cmd.MarkFlagRequired("captain")
	return cmd
}
