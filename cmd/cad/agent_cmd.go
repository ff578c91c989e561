package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/agent"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the sync agent, pushing local state to the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		debounce, _ := cmd.Flags().GetDuration("debounce")

		state, err := openLocalState()
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		a := agent.New(state, apiClient, agent.Options{
			Interval: interval,
			Debounce: debounce,
			Logger:   logger,
		})
		if err := a.Start(); err != nil {
			return fmt.Errorf("starting agent: %w", err)
		}
		logger.Info("sync agent started", "state", state.Path(), "server", serverURL, "interval", interval)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, stopping", "signal", sig)

		a.Stop()
		return nil
	},
}

func init() {
	agentCmd.Flags().Duration("interval", agent.DefaultInterval, "periodic push interval")
	agentCmd.Flags().Duration("debounce", time.Second, "quiet period after a state change before pushing")
}
