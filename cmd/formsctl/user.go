package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"properforms/internal/domain/auth"
	"properforms/internal/pkg/validator"
)

func (c *cli) userCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}

	var req auth.CreateUserRequest
	var role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = auth.UserRole(strings.ToLower(strings.TrimSpace(role)))
			if errs := validator.Validate(&req); errs != nil {
				return fmt.Errorf("invalid user: %v", errs)
			}
			u, err := c.app.Auth.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, %s): %s\n",
				u.ID, u.Email, u.Role, strings.Join(auth.CapabilitiesFor(u.Role), ", "))
			return nil
		},
	}
	create.Flags().StringVar(&req.Email, "email", "", "login email")
	create.Flags().StringVar(&req.Password, "password", "", "password, at least 8 characters")
	create.Flags().StringVar(&req.Name, "name", "", "display name")
	create.Flags().StringVar(&role, "role", string(auth.RoleEditor), "admin, editor or reviewer")

	user.AddCommand(create)
	return user
}
