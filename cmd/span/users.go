package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmd)
		},
	}

	cmd.AddCommand(
		newUsersCreateCmd(),
		newUsersListCmd(),
		newUsersDeleteCmd(),
	)
	return cmd
}

func newUsersCreateCmd() *cobra.Command {
	var name string
	var admin bool

	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a user",
		Long: `Creates a user account. With --name, a private personal span of type
"person" is created and linked to the account.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				user, err := d.Users.HandleCreate(cmd.Context(), args[0], name, admin)
				if err != nil {
					return fmt.Errorf("creating user: %w", err)
				}
				fmt.Printf("Created user: %s (%s)\n", user.Email, user.ID)
				if user.PersonalSpanID != "" {
					fmt.Printf("  personal span: %s\n", user.PersonalSpanID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Person name for the personal span")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant admin rights")
	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsersList(cmd)
		},
	}
}

func runUsersList(cmd *cobra.Command) error {
	return withDeps(func(d *Deps) error {
		users, err := d.Users.HandleList(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tADMIN\tPERSONAL SPAN")
		for i := range users {
			admin := ""
			if users[i].IsAdmin {
				admin = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", users[i].ID, users[i].Email, admin, users[i].PersonalSpanID)
		}
		w.Flush()
		return nil
	})
}

func newUsersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Long:  "Deletes a user and their personal span. Admins cannot delete their own account.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(func(d *Deps) error {
				if err := d.Users.HandleDelete(cmd.Context(), args[0], d.Principal); err != nil {
					return fmt.Errorf("deleting user: %w", err)
				}
				fmt.Printf("Deleted user: %s\n", args[0])
				return nil
			})
		},
	}
}
