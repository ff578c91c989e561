package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := apiClient.Health(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if jsonOutput {
			printJSON(health)
			return nil
		}
		fmt.Printf("server:  %s\n", serverURL)
		fmt.Printf("status:  %s\n", ui.RenderGood(health.Status))
		if health.Metrics {
			fmt.Printf("metrics: enabled\n")
		} else {
			fmt.Printf("metrics: %s\n", ui.RenderMuted("disabled"))
		}
		return nil
	},
}
