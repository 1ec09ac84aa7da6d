package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dispatchboard/internal/app"
	"dispatchboard/internal/db"
	"dispatchboard/internal/domain"
	"dispatchboard/internal/server"
)

func userCmd() *cobra.Command {
	usr := &cobra.Command{Use: "user", Short: "Manage users and their credentials"}
	usr.AddCommand(userCreateCmd())
	usr.AddCommand(userTokenCmd())
	usr.AddCommand(userAPIKeyCmd())
	return usr
}

func userCreateCmd() *cobra.Command {
	var u domain.User
	var role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u.Role = domain.Role(role)
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				created, err := b.CreateUser(ctx, u)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&u.ID, "id", "", "user id (generated when empty)")
	cmd.Flags().StringVar(&u.Name, "name", "", "display name")
	cmd.Flags().StringVar(&u.Email, "email", "", "email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleDispatcher), "Admin, Manager, Dispatcher or Technician")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// userTokenCmd signs a bearer token locally; it needs the server's secret.
func userTokenCmd() *cobra.Command {
	var id string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user (requires DISPATCH_JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := viper.GetString("jwt-secret")
			if secret == "" {
				return fmt.Errorf("DISPATCH_JWT_SECRET is required to sign tokens")
			}
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			a, err := app.Open(cmd.Context(), workspace)
			if err != nil {
				return err
			}
			defer a.Close()
			u, err := a.ResolveUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			token, err := server.IssueToken(secret, u, ttl, time.Now())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]string{"user_id": u.ID, "token": token})
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (defaults to the seeded admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	return cmd
}

func userAPIKeyCmd() *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Issue an API key; the raw key is only shown once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				userID := id
				if userID == "" {
					userID = b.Actor().ID
				}
				key, err := b.IssueAPIKey(ctx, userID, name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]string{"user_id": userID, "key": key})
				}
				fmt.Println(key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (defaults to the acting user)")
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func technicianCmd() *cobra.Command {
	tech := &cobra.Command{Use: "technician", Aliases: []string{"tech"}, Short: "Manage technicians"}
	tech.AddCommand(technicianListCmd())
	tech.AddCommand(technicianCreateCmd())
	return tech
}

func technicianListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List technicians",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.ListTechnicians(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Name", "Status", "Skills", "Email", "Phone")
				for _, t := range items {
					tw.AppendRow(table.Row{t.ID, t.Name, t.Status, strings.Join(t.Skills, ", "), t.Email, t.Phone})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func technicianCreateCmd() *cobra.Command {
	var t domain.Technician
	var status string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a technician",
		RunE: func(cmd *cobra.Command, args []string) error {
			t.Status = domain.TechnicianStatus(status)
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				created, err := b.CreateTechnician(ctx, t)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&t.ID, "id", "", "technician id (generated when empty); match a user id to link the login")
	cmd.Flags().StringVar(&t.Name, "name", "", "name")
	cmd.Flags().StringVar(&t.Email, "email", "", "email")
	cmd.Flags().StringVar(&t.Phone, "phone", "", "phone")
	cmd.Flags().StringSliceVar(&t.Skills, "skill", nil, "skill (repeatable)")
	cmd.Flags().StringVar(&status, "status", "", "Available, Busy or Offline")
	cmd.Flags().StringVar(&t.Location.Address, "address", "", "home base address")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func customerCmd() *cobra.Command {
	cust := &cobra.Command{Use: "customer", Short: "Manage customers"}
	cust.AddCommand(customerListCmd())
	cust.AddCommand(customerCreateCmd())
	return cust
}

func customerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List customers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				items, err := b.ListCustomers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := newTable("ID", "Name", "Email", "Phone", "Address")
				for _, c := range items {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Email, c.Phone, c.Address})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func customerCreateCmd() *cobra.Command {
	var c domain.Customer
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a customer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				created, err := b.CreateCustomer(ctx, c)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&c.ID, "id", "", "customer id (generated when empty)")
	cmd.Flags().StringVar(&c.Name, "name", "", "name")
	cmd.Flags().StringVar(&c.Email, "email", "", "email")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "phone")
	cmd.Flags().StringVar(&c.Address, "address", "", "address")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
