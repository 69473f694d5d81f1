// Package cli defines the cobra command tree for emptytohome.
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/emptytohome/internal/config"
	"github.com/evcraddock/emptytohome/internal/db"
)

var (
	flagConfig string
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eth",
		Short:         "EmptyToHome property rental platform",
		Long:          "EmptyToHome connects property owners, tenants, investors and institutions. Run the web UI or manage accounts, properties and meeting requests from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: ~/.config/eth/config.yaml)")
	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.emptytohome/eth.db)")

	root.AddCommand(
		newServeCmd(),
		newUserCmd(),
		newPropertyCmd(),
		newMeetingCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads settings and applies the --db override.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig, ".env")
	if err != nil {
		return config.Config{}, err
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	return cfg, nil
}

// openDB opens the database named by the configuration.
func openDB() (*sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return db.Open(cfg.DBPath)
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
