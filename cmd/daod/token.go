package main

import (
	"fmt"
	"time"

	"dao-governance/config"
	"dao-governance/internal/core/domain"
	"dao-governance/internal/service"

	"github.com/spf13/cobra"
)

// newTokenCmd issues a bearer token that authenticates as an address.
func newTokenCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a caller token for an address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("jwt.secret is required")
			}
			caller, err := domain.ParseAddress(address)
			if err != nil {
				return fmt.Errorf("--address: %w", err)
			}

			tokens := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
			token, expiresAt, err := tokens.Generate(caller)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "caller %s, expires %s\n", caller.Checksum(), expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "0x-prefixed caller address")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
