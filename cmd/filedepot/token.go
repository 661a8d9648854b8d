package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ykulikov/filedepot"
	"github.com/ykulikov/filedepot/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token <owner-uuid>",
	Short: "Mint a bearer token for an owner",
	Long: `Mint a signed bearer token carrying the given owner identity,
using the configured auth secret and token lifetime. Intended for testing
and for bootstrapping service accounts.`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ownerID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parse owner id: %w", err)
	}

	verifier, err := filedepot.NewTokenVerifier(filedepot.AuthConfig{
		Secret:   cfg.Auth.Secret,
		Lifetime: cfg.Auth.TokenLifetime,
	})
	if err != nil {
		return fmt.Errorf("create token signer: %w", err)
	}

	token, err := verifier.Sign(ownerID)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	fmt.Println(token)
	return nil
}
