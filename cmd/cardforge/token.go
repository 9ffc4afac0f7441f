package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/phrazzld/cardforge/internal/service/auth"
)

// tokenCmd issues an access token for local testing of the HTTP API.
func tokenCmd(c *cli) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validator.New().Struct(c.cfg.Auth); err != nil {
				return fmt.Errorf("auth configuration invalid: %w", err)
			}

			userID := uuid.New()
			if user != "" {
				var err error
				if userID, err = uuid.Parse(user); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}

			svc, err := auth.NewJWTService(c.cfg.Auth)
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return err
			}

			if c.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"userId": userID.String(),
					"token":  token,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User ID (default: random)")
	return cmd
}
