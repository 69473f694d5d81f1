package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/config"
	"github.com/evcraddock/emptytohome/internal/db"
	"github.com/evcraddock/emptytohome/internal/jobs"
	"github.com/evcraddock/emptytohome/internal/logging"
	"github.com/evcraddock/emptytohome/internal/storage"
	"github.com/evcraddock/emptytohome/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long:  "Start an HTTP server for the web UI and the session cleanup job.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides config)")

	return cmd
}

func runServe(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Setup(cfg.DevMode)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	files, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}

	sched, err := jobs.NewScheduler(cfg.CleanupSchedule, auth.NewSessionStore(database, !cfg.DevMode))
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop(context.Background())

	srv, err := web.NewServer(database, files, web.Config{BaseURL: cfg.BaseURL, DevMode: cfg.DevMode})
	if err != nil {
		return fmt.Errorf("creating web server: %w", err)
	}

	slog.Info("emptytohome ready", "url", cfg.BaseURL, "storage", cfg.Storage.Backend, "db", cfg.DBPath)
	return srv.ListenAndServe(ctx, cfg.Port)
}

// newStore opens the configured upload backend.
func newStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMinio:
		m := cfg.Storage.Minio
		store, err := storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("opening minio storage: %w", err)
		}
		return store, nil
	case config.BackendDisk, "":
		store, err := storage.NewDiskStore(cfg.MediaDir)
		if err != nil {
			return nil, fmt.Errorf("opening media directory: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
