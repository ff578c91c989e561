package schema

import (
	"fmt"
	"regexp"

	"github.com/groblegark/cadence/internal/model"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// IsValidDate reports whether date is formatted YYYY-MM-DD.
func IsValidDate(date string) bool {
	return datePattern.MatchString(date)
}

// MaxDailyScore bounds the stored daily score.
const MaxDailyScore = 1000

// ValidateDaily checks a daily-metrics row and normalizes nil maps to empty
// ones so stored JSONB is always an object. Pure; the row is mutated only on
// success.
func ValidateDaily(m *model.DailyMetrics) error {
	var ve ValidationError

	if !datePattern.MatchString(m.Date) {
		ve.add("date", fmt.Sprintf("must be YYYY-MM-DD, got %q", m.Date))
	}
	for key, count := range m.Actions {
		if count < 0 {
			ve.add("actions."+key, fmt.Sprintf("must be non-negative, got %d", count))
		}
	}
	if m.Score < 0 || m.Score > MaxDailyScore {
		ve.add("score", fmt.Sprintf("must be between 0 and %d, got %d", MaxDailyScore, m.Score))
	}

	if ve.HasErrors() {
		return &ve
	}
	if m.Checklist == nil {
		m.Checklist = map[string]bool{}
	}
	if m.Actions == nil {
		m.Actions = map[string]int{}
	}
	return nil
}
