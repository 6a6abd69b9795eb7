package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/config"
	"github.com/meridianhq/meridian/errors"
	"github.com/meridianhq/meridian/job"
	"github.com/meridianhq/meridian/logger"
	"github.com/meridianhq/meridian/server"
	"github.com/meridianhq/meridian/services"
	"github.com/meridianhq/meridian/storage"
)

// ServeCmd starts the broker server
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Meridian broker server",
	Long: `Start the broker server in foreground mode.

The server will:
- Load the backend service registry from the configured services file
- Accept backend callbacks that drive job state transitions
- Serve the job read API and the websocket job update feed
- Run until interrupted (Ctrl+C) with graceful shutdown

Example:
  meridian serve                   # Listen on the configured address
  meridian serve --port 9000       # Override the configured port`,
	RunE: runServe,
}

func init() {
	ServeCmd.Flags().String("host", "", "Listen host (overrides configuration)")
	ServeCmd.Flags().Int("port", 0, "Listen port (overrides configuration)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	// A broker with no routable services is misconfigured; fail before
	// binding the listener.
	registry, err := services.LoadRegistry(cfg.Services.ConfigPath)
	if err != nil {
		return errors.Wrapf(err, "failed to load service registry from %s", cfg.Services.ConfigPath)
	}
	logger.Infow("Service registry loaded",
		"path", cfg.Services.ConfigPath,
		"services", registry.Len())

	database, err := openDatabase(cfg, "")
	if err != nil {
		return err
	}
	defer database.Close()

	srv := server.NewServer(
		job.NewStore(database),
		storage.NewLocalStore(cfg.Staging.Root),
		logger.Logger,
		server.Options{
			CallbackRatePerSecond: cfg.Server.CallbackRatePerSecond,
			CallbackBurst:         cfg.Server.CallbackBurst,
		},
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return srv.Start(ctx, addr)
}
