package main

import (
	"fmt"

	"dao-governance/config"
	"dao-governance/pkg/logger"

	"github.com/spf13/cobra"
)

// newVerifyCmd recomputes the event hash chain of the configured store.
func newVerifyCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify the ledger event hash chain",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.gov.VerifyEvents(cmd.Context()); err != nil {
				return fmt.Errorf("event chain broken: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "event chain ok")
			return nil
		},
	}
}
