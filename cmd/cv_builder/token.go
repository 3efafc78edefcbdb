package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/cv-builder/internal/config"
	"github.com/jonathan/cv-builder/internal/plans"
	"github.com/jonathan/cv-builder/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development HS256 token",
	Long:  "Sign a bearer token with JWT_SECRET for local testing of the API.",
	RunE:  runToken,
}

var (
	tokenUser string
	tokenPlan string
)

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "User id placed in the subject claim (required)")
	tokenCmd.Flags().StringVarP(&tokenPlan, "plan", "p", plans.PlanFree, "Plan claim: free or premium")

	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	if tokenPlan != plans.PlanFree && tokenPlan != plans.PlanPremium {
		return fmt.Errorf("unknown plan %q", tokenPlan)
	}

	cfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	if cfg.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required to sign tokens")
	}

	token, err := server.NewJWTService(cfg).GenerateToken(tokenUser, tokenPlan)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
