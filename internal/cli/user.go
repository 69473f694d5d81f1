package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/emptytohome/internal/auth"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var username, password, userType string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := auth.UserType(userType)
			if !t.IsValid() {
				return fmt.Errorf("invalid user type %q (want owner, tenant, investor or institution)", userType)
			}
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			u, err := auth.NewUserStore(database).Add(username, password, t)
			if err != nil {
				return fmt.Errorf("adding user: %w", err)
			}

			if isJSON() {
				return printJSON(out(cmd), u)
			}
			fmt.Fprintf(out(cmd), "User %s added (%s, #%d).\n", u.Username, u.Type.Label(), u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&userType, "type", "", "owner, tenant, investor or institution")

	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			users, err := auth.NewUserStore(database).List()
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(out(cmd), users)
			}
			if len(users) == 0 {
				fmt.Fprintln(out(cmd), "No users found.")
				return nil
			}

			w := tabwriter.NewWriter(out(cmd), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tTYPE\tJOINED")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Type, u.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
