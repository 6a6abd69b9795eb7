package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meridianhq/meridian/config"
	"github.com/meridianhq/meridian/errors"
	"github.com/meridianhq/meridian/services"
)

// ServicesCmd represents the services command
var ServicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Inspect the backend service registry",
	Long: `Inspect the configured backend services and their capabilities.

Examples:
  meridian services ls             # List enabled services
  meridian services route C100 image/png
                                   # Show which service would handle a request`,
}

var servicesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List enabled backend services",
	RunE:  runServicesLs,
}

var servicesRouteCmd = &cobra.Command{
	Use:   "route <collection> [format...]",
	Short: "Show the service a request would route to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runServicesRoute,
}

func init() {
	ServicesCmd.AddCommand(servicesLsCmd)
	ServicesCmd.AddCommand(servicesRouteCmd)
	servicesRouteCmd.Flags().Bool("subset", false, "Require variable subsetting support")
}

func loadRegistry() (*services.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	registry, err := services.LoadRegistry(cfg.Services.ConfigPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load service registry from %s", cfg.Services.ConfigPath)
	}
	return registry, nil
}

func runServicesLs(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	descriptors := registry.All()
	if len(descriptors) == 0 {
		fmt.Println("No services configured")
		return nil
	}

	fmt.Printf("Configured Services (%d)\n", len(descriptors))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for _, d := range descriptors {
		fmt.Printf("%s (%s)\n", d.Name, d.Kind)
		fmt.Printf("  collections: %s\n", strings.Join(d.Collections, ", "))
		fmt.Printf("  formats:     %s\n", strings.Join(d.Capabilities.OutputFormats, ", "))
		fmt.Printf("  subsetting:  %t\n", d.Capabilities.VariableSubsetting)
	}
	return nil
}

func runServicesRoute(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	subset, _ := cmd.Flags().GetBool("subset")

	op := &services.Operation{
		Sources: []services.Source{{Collection: args[0]}},
	}
	if subset {
		op.Sources[0].Variables = []string{"*"}
	}
	rctx := services.RoutingContext{RequestedMimeTypes: args[1:]}

	selected := services.SelectService(op, rctx, registry)
	fmt.Printf("Service: %s\n", selected.Name)
	if selected.Kind == services.KindNoOp {
		fmt.Printf("Message: %s\n", selected.Message)
	} else if op.OutputFormat != "" {
		fmt.Printf("Format:  %s\n", op.OutputFormat)
	}
	return nil
}
