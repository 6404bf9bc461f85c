package main

import (
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/auth"
	"github.com/spf13/cobra"
)

// newTokenCommand mints a staff bearer token for local runs of the management API.
func newTokenCommand() *cobra.Command {
	var (
		role       string
		providerID string
		subject    string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an HS256 staff token signed with $JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != auth.RoleDoctor && role != auth.RoleAdmin {
				return fmt.Errorf("--role must be %s or %s", auth.RoleDoctor, auth.RoleAdmin)
			}
			now := time.Now()
			tok, err := auth.SignHS256(auth.Claims{
				Sub:        subject,
				ProviderID: providerID,
				Role:       role,
				Iat:        now.Unix(),
				Exp:        now.Add(ttl).Unix(),
			}, os.Getenv("JWT_SECRET"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&role, "role", auth.RoleDoctor, "doctor or admin")
	cmd.Flags().StringVar(&providerID, "provider", "provider-1", "provider id the token is scoped to")
	cmd.Flags().StringVar(&subject, "sub", "local-staff", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "token lifetime")
	return cmd
}
