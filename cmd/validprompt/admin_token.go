package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"validprompt/internal/auth"
)

func newAdminTokenCmd() *cobra.Command {
	var (
		subject string
		roles   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a JWT for the admin API, signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			parsed, err := auth.ParseRoles(roles)
			if err != nil {
				return err
			}

			token, exp, err := auth.GenerateAdminJWT(subject, parsed, ttl, []byte(secret))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Unix(exp, 0).UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().StringVar(&roles, "roles", "viewer", "comma separated roles (admin, viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultAdminTokenTTL, "token lifetime")
	return cmd
}
