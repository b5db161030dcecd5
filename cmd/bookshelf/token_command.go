package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bookshelf/internal/platform/crypto"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API's mutating routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.AuthEnabled() {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := crypto.GenerateToken(cfg.JWTSecret, subject, crypto.RoleEditor, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
