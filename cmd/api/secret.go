package main

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/agrolink/agrolink_api/internal/config"
	"github.com/agrolink/agrolink_api/internal/utils"
)

// secretCmd prints a fresh value for TEXTBEE_SIGNING_SECRET.
var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Generate a webhook signing secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := utils.GenerateWebhookSecret()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), secret)
		return nil
	},
}

var (
	tokenUserID string
	tokenTTL    time.Duration
)

// tokenCmd mints an admin token for local use against /v1/admin.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an admin JWT with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		utils.SetJWTSecret(cfg.JWTSecret)

		now := time.Now()
		token, err := utils.SignJWT(utils.Claims{
			UserID: tokenUserID,
			Role:   utils.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			},
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "cli-admin", "userId claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(secretCmd, tokenCmd)
}
