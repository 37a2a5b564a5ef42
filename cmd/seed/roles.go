package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/lumipure-api/internal/authz"
	"github.com/lumipure-api/internal/models"

	"github.com/spf13/cobra"
)

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage admin route policies",
	}
	cmd.AddCommand(newRolesListCmd(), newRolePolicyCmd("grant"), newRolePolicyCmd("revoke"))
	return cmd
}

func newRolesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Bootstrap builtin roles and print effective policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openAuthz()
			if err != nil {
				return err
			}
			return printRolePolicies(cmd.OutOrStdout(), svc)
		},
	}
}

func newRolePolicyCmd(verb string) *cobra.Command {
	var role, object, action string
	cmd := &cobra.Command{
		Use:   verb,
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a route policy for a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openAuthz()
			if err != nil {
				return err
			}
			if err := applyRolePolicy(svc, verb, role, object, action); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s for %s\n", verb, strings.ToUpper(action), authz.NormalizeObject(object), role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role name, e.g. catalog_manager")
	cmd.Flags().StringVar(&object, "object", "", "route template without /api, e.g. /products/:id")
	cmd.Flags().StringVar(&action, "action", "", "HTTP method")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("object")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

func openAuthz() (*authz.Service, error) {
	if _, err := openDatabase(); err != nil {
		return nil, err
	}
	svc, err := authz.NewService(models.DB)
	if err != nil {
		return nil, err
	}
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		return nil, err
	}
	return svc, nil
}

func applyRolePolicy(svc *authz.Service, verb, role, object, action string) error {
	switch verb {
	case "grant":
		return svc.GrantRolePolicy(role, object, action)
	case "revoke":
		return svc.RevokeRolePolicy(role, object, action)
	default:
		return fmt.Errorf("unknown policy verb %q", verb)
	}
}

// printRolePolicies 输出每个角色的生效策略（含继承）
func printRolePolicies(w io.Writer, svc *authz.Service) error {
	roles, err := svc.ListRoles()
	if err != nil {
		return err
	}
	for _, role := range roles {
		policies, err := svc.GetRolePolicies(role)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s (%d)\n", role, len(policies))
		for _, policy := range policies {
			fmt.Fprintf(w, "  %-6s %s\n", policy.Action, policy.Object)
		}
	}
	return nil
}
