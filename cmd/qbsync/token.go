package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosuda/qbsync/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a status API bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if !cfg.JWT.Enabled() {
				return errors.New("QBSYNC_JWT_SECRET is not set; the status API is disabled")
			}
			if ttl <= 0 {
				ttl = cfg.JWT.TTL
			}

			token, err := auth.IssueToken(cfg.JWT.Secret, subject, role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject, recorded in audit logs")
	cmd.Flags().StringVar(&role, "role", auth.RoleAdmin, "token role: admin or viewer")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default QBSYNC_JWT_TTL)")

	return cmd
}
