package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/localstate"
	"github.com/groblegark/cadence/internal/schema"
	"github.com/groblegark/cadence/internal/ui"
)

// loadActionsConfig fetches the actions config from the server, falling back
// to the built-in default when the server is unreachable.
func loadActionsConfig(ctx context.Context) *schema.ActionsConfig {
	var cfg schema.ActionsConfig
	raw, err := apiClient.GetConfig(ctx, schema.CategoryActions)
	if err != nil || json.Unmarshal(raw, &cfg) != nil {
		_ = json.Unmarshal(schema.MustDefault(schema.CategoryActions), &cfg)
	}
	return &cfg
}

var logCmd = &cobra.Command{
	Use:   "log [<action-key>]",
	Short: "Log one action, or list today's counters",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := openLocalState()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return printActions(state)
		}

		key := args[0]
		cfg := loadActionsConfig(context.Background())
		var action *schema.ActionType
		for i := range cfg.Actions {
			if cfg.Actions[i].Key == key {
				action = &cfg.Actions[i]
				break
			}
		}
		if action == nil {
			fmt.Fprintf(os.Stderr, "Error: unknown action %q (run 'cad log' to list actions)\n", key)
			os.Exit(1)
		}

		count, err := state.Increment(key)
		if err != nil {
			return err
		}
		if action.Target != nil && count >= *action.Target {
			fmt.Printf("%s %s: %s\n", action.Icon, action.Label, ui.RenderGood(fmt.Sprintf("%d/%d", count, *action.Target)))
		} else if action.Target != nil {
			fmt.Printf("%s %s: %d/%d\n", action.Icon, action.Label, count, *action.Target)
		} else {
			fmt.Printf("%s %s: %d\n", action.Icon, action.Label, count)
		}
		return nil
	},
}

func printActions(state *localstate.Store) error {
	st, err := state.Snapshot()
	if err != nil {
		return err
	}
	cfg := loadActionsConfig(context.Background())

	if jsonOutput {
		printJSON(st.Actions)
		return nil
	}

	for _, action := range cfg.Actions {
		if !action.Enabled {
			continue
		}
		count := st.Actions[action.Key]
		if action.Target != nil {
			progress := fmt.Sprintf("%d/%d", count, *action.Target)
			if count >= *action.Target {
				progress = ui.RenderGood(progress)
			}
			fmt.Printf("%s %-12s %s  %s\n", action.Icon, action.Key, progress, ui.RenderMuted(action.Label))
		} else {
			fmt.Printf("%s %-12s %d  %s\n", action.Icon, action.Key, count, ui.RenderMuted(action.Label))
		}
	}
	return nil
}
