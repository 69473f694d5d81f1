package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/form"
	"github.com/evcraddock/emptytohome/internal/property"
)

func newPropertyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "property",
		Short: "Manage properties",
	}
	cmd.AddCommand(newPropertyAddCmd(), newPropertyListCmd())
	return cmd
}

func newPropertyAddCmd() *cobra.Command {
	var owner string
	var p property.Property

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a property for an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return fmt.Errorf("--owner is required")
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			svc := property.NewService(property.NewRepository(database), auth.NewUserStore(database), nil)
			created, err := svc.Create(owner, &p)
			if err != nil {
				var errs form.Errors
				if errors.As(err, &errs) {
					return fmt.Errorf("invalid property: %s", errs.Error())
				}
				return fmt.Errorf("adding property: %w", err)
			}

			if isJSON() {
				return printJSON(out(cmd), created)
			}
			fmt.Fprintln(out(cmd), "Property added.")
			printPropertySummary(out(cmd), created)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&owner, "owner", "", "owner username")
	f.StringVar(&p.Number, "number", "", "unique property number")
	f.StringVar(&p.Address, "address", "", "street address")
	f.StringVar(&p.City, "city", "", "city")
	f.IntVar(&p.Area, "area", 0, "area in square meters")
	f.IntVar(&p.Rooms, "rooms", 0, "number of rooms")
	f.IntVar(&p.Bathrooms, "bathrooms", 0, "number of bathrooms")
	f.IntVar(&p.Floor, "floor", 0, "floor")
	f.BoolVar(&p.HasCourtyard, "courtyard", false, "has a courtyard")

	return cmd
}

func newPropertyListCmd() *cobra.Command {
	var city string
	var minRooms int
	var courtyard bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List properties",
		Long:  "List properties, optionally filtered by city substring, minimum rooms and courtyard.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if minRooms < 0 {
				return fmt.Errorf("--min-rooms must be >= 0")
			}

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			props, err := property.NewRepository(database).List(property.ListOptions{
				City:          strings.TrimSpace(city),
				MinRooms:      minRooms,
				CourtyardOnly: courtyard,
			})
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(out(cmd), props)
			}
			return printPropertyTable(out(cmd), props)
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "city contains (case-insensitive)")
	cmd.Flags().IntVar(&minRooms, "min-rooms", 0, "minimum number of rooms")
	cmd.Flags().BoolVar(&courtyard, "courtyard", false, "only properties with a courtyard")

	return cmd
}
