package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/cadence/internal/localstate"
	"github.com/groblegark/cadence/internal/schema"
	"github.com/groblegark/cadence/internal/ui"
)

// loadScoringConfig fetches the scoring config from the server, falling back
// to the built-in default when the server is unreachable.
func loadScoringConfig(ctx context.Context) *schema.ScoringConfig {
	var cfg schema.ScoringConfig
	raw, err := apiClient.GetConfig(ctx, schema.CategoryScoring)
	if err != nil || json.Unmarshal(raw, &cfg) != nil {
		_ = json.Unmarshal(schema.MustDefault(schema.CategoryScoring), &cfg)
	}
	return &cfg
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute and record today's score",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := openLocalState()
		if err != nil {
			return err
		}
		st, err := state.Snapshot()
		if err != nil {
			return err
		}

		ctx := context.Background()
		checklist := loadChecklistConfig(ctx)
		actions := loadActionsConfig(ctx)
		scoring := loadScoringConfig(ctx)

		score := localstate.Score(st, checklist, actions, scoring)
		if err := state.RecordScore(score); err != nil {
			return err
		}

		weekly, err := state.WeeklyAverage()
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]any{
				"date":           st.Date,
				"score":          score,
				"message":        scoring.MessageFor(score),
				"weekly_average": weekly,
			})
			return nil
		}

		rendered := ui.RenderScore(fmt.Sprintf("%d/10", score), score, scoring.Thresholds.Good, scoring.Thresholds.Okay)
		fmt.Printf("%s  %s\n", rendered, scoring.MessageFor(score))
		fmt.Printf("%s\n", ui.RenderMuted(fmt.Sprintf("weekly average: %d", weekly)))
		return nil
	},
}
