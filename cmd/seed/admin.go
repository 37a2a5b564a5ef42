package main

import (
	"fmt"
	"os"

	"github.com/lumipure-api/internal/models"

	"github.com/spf13/cobra"
)

func newAdminCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Create the admin user if absent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = os.Getenv("ADMIN_EMAIL")
			}
			if password == "" {
				password = os.Getenv("ADMIN_PASSWORD")
			}
			if _, err := openDatabase(); err != nil {
				return err
			}
			created, err := models.EnsureAdminUser(models.DB, name, email, password)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(cmd.OutOrStdout(), "admin user created")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "admin user already exists")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Admin User", "admin display name")
	cmd.Flags().StringVar(&email, "email", "", "admin email (default $ADMIN_EMAIL or admin@lumipure.com)")
	cmd.Flags().StringVar(&password, "password", "", "admin password (default $ADMIN_PASSWORD)")
	return cmd
}
