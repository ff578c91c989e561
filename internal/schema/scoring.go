package schema

import (
	"encoding/json"
	"fmt"
)

// ScoringRules weights each score component, 0-10 points each.
type ScoringRules struct {
	ChecklistCompletion float64 `json:"checklistCompletion"`
	ATierCoverage       float64 `json:"aTierCoverage"`
	ValueDms            float64 `json:"valueDms"`
	NewLeads            float64 `json:"newLeads"`
	EngagementVelocity  float64 `json:"engagementVelocity"`
}

// ScoringThresholds are the score cutoffs for each message tier.
type ScoringThresholds struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Okay      int `json:"okay"`
}

// ScoringMessages are the per-tier messages shown with the daily score.
type ScoringMessages struct {
	Excellent string `json:"excellent"`
	Good      string `json:"good"`
	Okay      string `json:"okay"`
	Poor      string `json:"poor"`
}

// ScoringConfig is the full scoring configuration.
type ScoringConfig struct {
	Rules      ScoringRules      `json:"rules"`
	Thresholds ScoringThresholds `json:"thresholds"`
	Messages   ScoringMessages   `json:"messages"`
}

// MessageFor returns the message tier for a given score.
func (c *ScoringConfig) MessageFor(score int) string {
	switch {
	case score >= c.Thresholds.Excellent:
		return c.Messages.Excellent
	case score >= c.Thresholds.Good:
		return c.Messages.Good
	case score >= c.Thresholds.Okay:
		return c.Messages.Okay
	default:
		return c.Messages.Poor
	}
}

func validateScoring(raw json.RawMessage) (json.RawMessage, error) {
	var cfg ScoringConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}

	var ve ValidationError

	rules := []struct {
		field string
		value float64
	}{
		{"rules.checklistCompletion", cfg.Rules.ChecklistCompletion},
		{"rules.aTierCoverage", cfg.Rules.ATierCoverage},
		{"rules.valueDms", cfg.Rules.ValueDms},
		{"rules.newLeads", cfg.Rules.NewLeads},
		{"rules.engagementVelocity", cfg.Rules.EngagementVelocity},
	}
	for _, r := range rules {
		if r.value < 0 || r.value > 10 {
			ve.add(r.field, fmt.Sprintf("must be between 0 and 10, got %g", r.value))
		}
	}

	thresholds := []struct {
		field string
		value int
	}{
		{"thresholds.excellent", cfg.Thresholds.Excellent},
		{"thresholds.good", cfg.Thresholds.Good},
		{"thresholds.okay", cfg.Thresholds.Okay},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 10 {
			ve.add(th.field, fmt.Sprintf("must be between 0 and 10, got %d", th.value))
		}
	}

	messages := []struct {
		field string
		value string
	}{
		{"messages.excellent", cfg.Messages.Excellent},
		{"messages.good", cfg.Messages.Good},
		{"messages.okay", cfg.Messages.Okay},
		{"messages.poor", cfg.Messages.Poor},
	}
	for _, m := range messages {
		if m.value == "" {
			ve.add(m.field, "is required")
		} else if len([]rune(m.value)) > 50 {
			ve.add(m.field, "must be 50 characters or fewer")
		}
	}

	if ve.HasErrors() {
		return nil, &ve
	}
	return marshal(&cfg), nil
}
