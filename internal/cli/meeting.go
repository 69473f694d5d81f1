package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/emptytohome/internal/meeting"
)

func newMeetingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Review and answer investor meeting requests",
	}
	cmd.AddCommand(newMeetingListCmd(), newMeetingRespondCmd())
	return cmd
}

func newMeetingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all meeting requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			list, err := meeting.NewRepository(database).ListAll()
			if err != nil {
				return err
			}

			if isJSON() {
				return printJSON(out(cmd), list)
			}
			printMeetings(out(cmd), list)
			return nil
		},
	}
}

func newMeetingRespondCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "respond <id> <response...>",
		Short: "Record a response to a meeting request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid meeting ID %q: %w", args[0], err)
			}
			response := strings.Join(args[1:], " ")

			database, err := openDB()
			if err != nil {
				return err
			}
			defer closeDB(database)

			m, err := meeting.NewRepository(database).SetResponse(id, response)
			if err != nil {
				return fmt.Errorf("responding to meeting %d: %w", id, err)
			}

			if isJSON() {
				return printJSON(out(cmd), m)
			}
			fmt.Fprintf(out(cmd), "Meeting #%d answered.\n", m.ID)
			return nil
		},
	}
}
