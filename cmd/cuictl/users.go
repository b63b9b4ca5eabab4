package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/identity"
)

func newBootstrapCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "bootstrap-superadmin",
		Short: "Create the first superadmin if none exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			u, err := rt.svc.Identity.BootstrapSuperadmin(cmd.Context(), username, password)
			if errors.Is(err, domain.ErrConflict) {
				fmt.Fprintln(cmd.OutOrStdout(), "A superadmin already exists; nothing to do.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Superadmin %q created (id %s).\n", u.Username, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "superadmin username")
	cmd.Flags().StringVar(&password, "password", "", "superadmin password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSetRoleCmd() *cobra.Command {
	var username, role, tenant string

	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change the role and tenant binding of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var tenantID *uuid.UUID
			if tenant != "" {
				id, err := uuid.Parse(tenant)
				if err != nil {
					return fmt.Errorf("--tenant: %w", err)
				}
				tenantID = &id
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			u, err := rt.catalog.Users.GetByUsername(cmd.Context(), identity.NormalizeUsername(username))
			if err != nil {
				return fmt.Errorf("user %q: %w", username, err)
			}
			updated, err := rt.svc.Identity.SetRole(cmd.Context(), domain.SystemPrincipal(), u.ID, domain.UserRole(role), tenantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q is now %s.\n", updated.Username, updated.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user to change")
	cmd.Flags().StringVar(&role, "role", "", "new role (superadmin, tenant_admin, analyst, viewer, auditor)")
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id for tenant-bound roles")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
