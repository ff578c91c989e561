package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ChecklistTask is one daily checklist item.
type ChecklistTask struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Order    int    `json:"order"`
	Enabled  bool   `json:"enabled"`
}

// UnmarshalJSON defaults enabled to true when the field is absent.
func (t *ChecklistTask) UnmarshalJSON(data []byte) error {
	type alias ChecklistTask
	aux := struct {
		*alias
		Enabled *bool `json:"enabled"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Enabled = aux.Enabled == nil || *aux.Enabled
	return nil
}

// TaskCategory groups checklist tasks and carries their display colors.
type TaskCategory struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	BgColor string `json:"bgColor"`
}

// ChecklistConfig is the full checklist configuration.
type ChecklistConfig struct {
	Tasks      []ChecklistTask         `json:"tasks"`
	Categories map[string]TaskCategory `json:"categories"`
}

// Color tokens follow the original tailwind-style convention.
var (
	colorPattern   = regexp.MustCompile(`^[a-z]+-\d{3}$`)
	bgColorPattern = regexp.MustCompile(`^[a-z]+-\d{3}/\d{1,2}$`)
)

func validateChecklist(raw json.RawMessage) (json.RawMessage, error) {
	var cfg ChecklistConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}

	var ve ValidationError
	for i, task := range cfg.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		if task.ID == "" {
			ve.add(path+".id", "is required")
		}
		if task.Text == "" {
			ve.add(path+".text", "is required")
		} else if len([]rune(task.Text)) > 200 {
			ve.add(path+".text", "must be 200 characters or fewer")
		}
		if task.Category == "" {
			ve.add(path+".category", "is required")
		}
		if task.Order < 0 {
			ve.add(path+".order", fmt.Sprintf("must be non-negative, got %d", task.Order))
		}
	}

	for key, cat := range cfg.Categories {
		path := "categories." + key
		if cat.Name == "" {
			ve.add(path+".name", "is required")
		} else if len([]rune(cat.Name)) > 50 {
			ve.add(path+".name", "must be 50 characters or fewer")
		}
		if !colorPattern.MatchString(cat.Color) {
			ve.add(path+".color", fmt.Sprintf("must match color-500 format, got %q", cat.Color))
		}
		if !bgColorPattern.MatchString(cat.BgColor) {
			ve.add(path+".bgColor", fmt.Sprintf("must match color-500/5 format, got %q", cat.BgColor))
		}
	}

	if ve.HasErrors() {
		return nil, &ve
	}
	if cfg.Tasks == nil {
		cfg.Tasks = []ChecklistTask{}
	}
	if cfg.Categories == nil {
		cfg.Categories = map[string]TaskCategory{}
	}
	return marshal(&cfg), nil
}
