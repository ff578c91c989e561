package schema

import (
	"encoding/json"
	"fmt"
)

// Default returns the fixed fallback value for a category. Every default
// passes its category's validator; that invariant is covered by tests.
func Default(cat Category) (json.RawMessage, error) {
	var v any
	switch cat {
	case CategoryChecklist:
		v = &defaultChecklist
	case CategoryRhythm:
		v = &defaultRhythm
	case CategoryActions:
		v = &defaultActions
	case CategoryScoring:
		v = &defaultScoring
	default:
		return nil, &UnknownCategoryError{Category: string(cat)}
	}
	return marshal(v), nil
}

// MustDefault is Default for categories known to be valid at the call site.
func MustDefault(cat Category) json.RawMessage {
	data, err := Default(cat)
	if err != nil {
		panic(fmt.Sprintf("schema: no default for category %q", cat))
	}
	return data
}

var defaultChecklist = ChecklistConfig{
	Tasks: []ChecklistTask{
		{ID: "warmup", Text: "Warm 10 A-tier before anchor", Category: "preparation", Order: 0, Enabled: true},
		{ID: "anchor", Text: "Anchor post shipped", Category: "content", Order: 1, Enabled: true},
		{ID: "velocity", Text: "5-min velocity replies done", Category: "engagement", Order: 2, Enabled: true},
		{ID: "log", Text: "New engagers logged", Category: "tracking", Order: 3, Enabled: true},
		{ID: "progress", Text: "7-touch sequences progressed", Category: "sequences", Order: 4, Enabled: true},
		{ID: "advance", Text: "Advanced ≥2 people one stage", Category: "advancement", Order: 5, Enabled: true},
		{ID: "dms", Text: "5 value DMs sent", Category: "outreach", Order: 6, Enabled: true},
		{ID: "leads", Text: "5 new qualified leads added", Category: "generation", Order: 7, Enabled: true},
		{ID: "coverage", Text: "A-tier coverage 90%+", Category: "coverage", Order: 8, Enabled: true},
		{ID: "score", Text: "Daily Micro Score calculated", Category: "analysis", Order: 9, Enabled: true},
		{ID: "crm", Text: "CRM fully updated & next actions scheduled", Category: "management", Order: 10, Enabled: true},
	},
	Categories: map[string]TaskCategory{
		"preparation": {Name: "Preparation", Color: "blue-500", BgColor: "blue-500/5"},
		"content":     {Name: "Content", Color: "purple-500", BgColor: "purple-500/5"},
		"engagement":  {Name: "Engagement", Color: "green-500", BgColor: "green-500/5"},
		"tracking":    {Name: "Tracking", Color: "yellow-500", BgColor: "yellow-500/5"},
		"sequences":   {Name: "Sequences", Color: "orange-500", BgColor: "orange-500/5"},
		"advancement": {Name: "Advancement", Color: "red-500", BgColor: "red-500/5"},
		"outreach":    {Name: "Outreach", Color: "pink-500", BgColor: "pink-500/5"},
		"generation":  {Name: "Generation", Color: "emerald-500", BgColor: "emerald-500/5"},
		"coverage":    {Name: "Coverage", Color: "cyan-500", BgColor: "cyan-500/5"},
		"analysis":    {Name: "Analysis", Color: "indigo-500", BgColor: "indigo-500/5"},
		"management":  {Name: "Management", Color: "slate-500", BgColor: "slate-500/5"},
	},
}

var defaultRhythm = RhythmConfig{
	Blocks: []RhythmBlock{
		{ID: "warmup", Name: "Pre-Post Warmup", Duration: 15, Emoji: "🔥", Order: 0, Enabled: true},
		{ID: "anchor", Name: "Post Anchor", Duration: 5, Emoji: "⚓", Order: 1, Enabled: true},
		{ID: "velocity", Name: "First 5 Minutes", Duration: 5, Emoji: "⚡", Order: 2, Enabled: true},
		{ID: "sprint1", Name: "Engagement Sprint 1", Duration: 45, Emoji: "🏃", Order: 3, Enabled: true},
		{ID: "midday", Name: "Midday Micro", Duration: 15, Emoji: "☀️", Order: 4, Enabled: true},
		{ID: "sprint2", Name: "Engagement Sprint 2", Duration: 45, Emoji: "🏃", Order: 5, Enabled: true},
		{ID: "dms", Name: "DM Power Slot", Duration: 30, Emoji: "💬", Order: 6, Enabled: true},
		{ID: "debrief", Name: "Debrief / CRM Update", Duration: 10, Emoji: "📝", Order: 7, Enabled: true},
	},
}

func intPtr(n int) *int { return &n }

var defaultActions = ActionsConfig{
	Actions: []ActionType{
		{Key: "valueDmsSent", Label: "Value DMs", Icon: "💬", Target: intPtr(5), Enabled: true},
		{Key: "newLeadsAdded", Label: "New Leads", Icon: "🎯", Target: intPtr(5), Enabled: true},
		{Key: "newEngagersLogged", Label: "Engagers", Icon: "👥", Target: nil, Enabled: true},
		{Key: "sequencesProgressed", Label: "Sequences", Icon: "📈", Target: nil, Enabled: true},
		{Key: "peopleAdvanced", Label: "Advanced", Icon: "⬆️", Target: intPtr(2), Enabled: true},
	},
}

var defaultScoring = ScoringConfig{
	Rules: ScoringRules{
		ChecklistCompletion: 2,
		ATierCoverage:       2,
		ValueDms:            2,
		NewLeads:            2,
		EngagementVelocity:  2,
	},
	Thresholds: ScoringThresholds{Excellent: 8, Good: 6, Okay: 4},
	Messages: ScoringMessages{
		Excellent: "Perfect execution!",
		Good:      "Great progress!",
		Okay:      "Keep pushing",
		Poor:      "Let's improve",
	},
}
