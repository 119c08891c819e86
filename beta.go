package main

import (
	"log"

	"fairbounty/config"
	"fairbounty/services"

	"github.com/spf13/cobra"
)

func betaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "beta",
		Short: "Manage beta access for wallets",
	}
	cmd.AddCommand(betaSetCommand("grant", "Grant beta access to a wallet", true))
	cmd.AddCommand(betaSetCommand("revoke", "Revoke beta access from a wallet", false))
	return cmd
}

func betaSetCommand(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <wallet>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			wallet := args[0]
			if err := services.NewProfileService(db).SetBetaAccess(cmd.Context(), wallet, active); err != nil {
				return err
			}
			log.Printf("✅ [BETA] %s: active=%t", wallet, active)
			return nil
		},
	}
}
