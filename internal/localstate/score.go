package localstate

import (
	"math"

	"github.com/groblegark/cadence/internal/schema"
)

// Well-known checklist task and action keys referenced by the scoring rules.
// These match the IDs shipped in the default configs.
const (
	taskCoverage = "coverage"
	taskVelocity = "velocity"

	actionValueDms = "valueDmsSent"
	actionNewLeads = "newLeadsAdded"
)

// Score computes the daily score from local state and the live configs.
//
// Each scoring rule contributes up to its configured weight:
//   - checklistCompletion scales with the fraction of enabled tasks done
//   - aTierCoverage and engagementVelocity pay out when their checklist
//     task is checked
//   - valueDms and newLeads pay out when the action counter meets the
//     target from the actions config (any count when no target is set)
func Score(st *State, checklist *schema.ChecklistConfig, actions *schema.ActionsConfig, scoring *schema.ScoringConfig) int {
	total := 0.0

	enabled, done := 0, 0
	for _, task := range checklist.Tasks {
		if !task.Enabled {
			continue
		}
		enabled++
		if st.Checklist[task.ID] {
			done++
		}
	}
	if enabled > 0 {
		total += scoring.Rules.ChecklistCompletion * float64(done) / float64(enabled)
	}

	if st.Checklist[taskCoverage] {
		total += scoring.Rules.ATierCoverage
	}
	if st.Checklist[taskVelocity] {
		total += scoring.Rules.EngagementVelocity
	}

	if actionMet(st, actions, actionValueDms) {
		total += scoring.Rules.ValueDms
	}
	if actionMet(st, actions, actionNewLeads) {
		total += scoring.Rules.NewLeads
	}

	return int(math.Round(total))
}

// actionMet reports whether the counter for the given action key reached its
// configured daily target.
func actionMet(st *State, cfg *schema.ActionsConfig, key string) bool {
	count := st.Actions[key]
	for _, action := range cfg.Actions {
		if action.Key != key {
			continue
		}
		if !action.Enabled {
			return false
		}
		if action.Target != nil {
			return count >= *action.Target
		}
		return count > 0
	}
	return count > 0
}
