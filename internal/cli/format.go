package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/evcraddock/emptytohome/internal/meeting"
	"github.com/evcraddock/emptytohome/internal/property"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printPropertySummary prints a single property in text format.
func printPropertySummary(w io.Writer, p *property.Property) {
	fmt.Fprintf(w, "Property #%d (%s)\n", p.ID, p.Number)
	fmt.Fprintf(w, "  Address:   %s, %s\n", p.Address, p.City)
	fmt.Fprintf(w, "  Owner:     %s\n", p.OwnerUsername)
	fmt.Fprintf(w, "  Area:      %d m²\n", p.Area)
	fmt.Fprintf(w, "  Rooms:     %d\n", p.Rooms)
	fmt.Fprintf(w, "  Baths:     %d\n", p.Bathrooms)
	fmt.Fprintf(w, "  Floor:     %d\n", p.Floor)
	fmt.Fprintf(w, "  Courtyard: %s\n", yesNo(p.HasCourtyard))
}

// printPropertyTable prints a list of properties as a formatted table.
func printPropertyTable(out io.Writer, props []*property.Property) error {
	if len(props) == 0 {
		fmt.Fprintln(out, "No properties found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tNUMBER\tADDRESS\tCITY\tROOMS\tCOURTYARD\tOWNER"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t------\t-------\t----\t-----\t---------\t-----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, p := range props {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Number, truncate(p.Address, 40), p.City, p.Rooms, yesNo(p.HasCourtyard), p.OwnerUsername); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Fprintf(out, "\nTotal: %d properties\n", len(props))
	return nil
}

// printMeetings prints meeting requests in text format.
func printMeetings(w io.Writer, list []*meeting.Request) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No meeting requests.")
		return
	}

	for _, m := range list {
		fmt.Fprintf(w, "[%s] #%d (%s)\n  %s\n", m.Date.Format("2006-01-02 15:04"), m.ID, m.InvestorUsername, m.Message)
		if m.Pending() {
			fmt.Fprintln(w, "  -> pending")
		} else {
			fmt.Fprintf(w, "  -> %s\n", m.Response)
		}
		fmt.Fprintln(w)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
