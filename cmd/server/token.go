package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	jwttoken "lectern/internal/jwt_token"
	"lectern/internal/platform/config"
)

const (
	userFlag = "user"
	roleFlag = "role"
	ttlFlag  = "ttl"
)

// tokenCommand mints an access token with the configured signing key. It is
// refused in production.
func tokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "mint a development access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			path, err := flags.GetString(configFlag)
			if err != nil {
				return err
			}
			cfg, err := config.Load(cmd.Context(), path)
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("token minting is disabled in production")
			}

			rawUser, err := flags.GetString(userFlag)
			if err != nil {
				return err
			}
			userID := uuid.New()
			if rawUser != "" {
				if userID, err = uuid.Parse(rawUser); err != nil {
					return fmt.Errorf("--%s must be a UUID: %w", userFlag, err)
				}
			}
			role, err := flags.GetString(roleFlag)
			if err != nil {
				return err
			}
			ttl, err := flags.GetDuration(ttlFlag)
			if err != nil {
				return err
			}

			jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := jwt.GenerateAccessToken(userID, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			cmd.Printf("user_id: %s\nrole: %s\ntoken: %s\n", userID, role, token)
			return nil
		},
	}
	cmd.Flags().String(userFlag, "", "user ID to embed; a random one when empty")
	cmd.Flags().String(roleFlag, "student", "role claim, e.g. student or admin")
	cmd.Flags().Duration(ttlFlag, time.Hour, "token lifetime")
	return cmd
}
