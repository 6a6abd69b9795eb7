package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/cmd/meridian/commands"
	"github.com/meridianhq/meridian/config"
	"github.com/meridianhq/meridian/logger"
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - service broker for data-processing operations",
	Long: `Meridian routes data-processing operations to backend services and
tracks their jobs through completion.

Backends are described in a services configuration file by the collections
they cover and the capabilities they offer. Inbound requests are matched
against those capabilities; running jobs report results back through the
callback endpoint.

Available commands:
  serve    - Start the broker server
  db       - Manage the broker database
  services - Inspect the backend service registry

Examples:
  meridian serve                  # Start the broker
  meridian services ls            # List configured backends
  meridian db stats               # Show job counts by status`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := logger.Initialize(cfg.Log.JSON); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.ServicesCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
