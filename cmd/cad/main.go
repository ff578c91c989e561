package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/client"
	"github.com/groblegark/cadence/internal/ui"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool

	apiClient client.TrackerClient
)

func defaultServer() string {
	if s := os.Getenv("CADENCE_SERVER"); s != "" {
		return s
	}
	if url := activeRemoteURL(); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if t := os.Getenv("CADENCE_TOKEN"); t != "" {
		return t
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "cad",
	Short: "CLI for the cadence tracking service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		apiClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if apiClient != nil {
			apiClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "server base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
