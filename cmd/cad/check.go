package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/localstate"
	"github.com/groblegark/cadence/internal/schema"
	"github.com/groblegark/cadence/internal/ui"
)

// openLocalState returns the state store at the standard path.
func openLocalState() (*localstate.Store, error) {
	path, err := localstate.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("locating state file: %w", err)
	}
	return localstate.New(path, nil), nil
}

// loadChecklistConfig fetches the checklist config from the server, falling
// back to the built-in default when the server is unreachable.
func loadChecklistConfig(ctx context.Context) *schema.ChecklistConfig {
	var cfg schema.ChecklistConfig
	raw, err := apiClient.GetConfig(ctx, schema.CategoryChecklist)
	if err != nil || json.Unmarshal(raw, &cfg) != nil {
		_ = json.Unmarshal(schema.MustDefault(schema.CategoryChecklist), &cfg)
	}
	return &cfg
}

var checkCmd = &cobra.Command{
	Use:   "check [<task-id>]",
	Short: "Toggle a checklist task, or list today's checklist",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := openLocalState()
		if err != nil {
			return err
		}

		if len(args) == 0 {
			return printChecklist(state)
		}

		taskID := args[0]
		cfg := loadChecklistConfig(context.Background())
		known := false
		for _, task := range cfg.Tasks {
			if task.ID == taskID {
				known = true
				break
			}
		}
		if !known {
			fmt.Fprintf(os.Stderr, "Error: unknown task %q (run 'cad check' to list tasks)\n", taskID)
			os.Exit(1)
		}

		on, err := state.Toggle(taskID)
		if err != nil {
			return err
		}
		if on {
			fmt.Printf("%s %s\n", ui.RenderGood("[x]"), taskID)
		} else {
			fmt.Printf("[ ] %s\n", taskID)
		}
		return nil
	},
}

func printChecklist(state *localstate.Store) error {
	st, err := state.Snapshot()
	if err != nil {
		return err
	}
	cfg := loadChecklistConfig(context.Background())

	tasks := make([]schema.ChecklistTask, 0, len(cfg.Tasks))
	for _, task := range cfg.Tasks {
		if task.Enabled {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })

	if jsonOutput {
		printJSON(st)
		return nil
	}

	done := 0
	for _, task := range tasks {
		if st.Checklist[task.ID] {
			done++
			fmt.Printf("%s %s  %s\n", ui.RenderGood("[x]"), task.ID, ui.RenderMuted(task.Text))
		} else {
			fmt.Printf("[ ] %s  %s\n", task.ID, ui.RenderMuted(task.Text))
		}
	}
	fmt.Printf("\n%d/%d done (%s)\n", done, len(tasks), st.Date)
	return nil
}
