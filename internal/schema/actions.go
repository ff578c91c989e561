package schema

import (
	"encoding/json"
	"fmt"
)

// ActionType is one trackable outreach counter. Target is the daily goal;
// nil means the counter has no target.
type ActionType struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Target  *int   `json:"target"`
	Enabled bool   `json:"enabled"`
}

// UnmarshalJSON defaults enabled to true when the field is absent.
func (a *ActionType) UnmarshalJSON(data []byte) error {
	type alias ActionType
	aux := struct {
		*alias
		Enabled *bool `json:"enabled"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Enabled = aux.Enabled == nil || *aux.Enabled
	return nil
}

// ActionsConfig is the full action-logger configuration.
type ActionsConfig struct {
	Actions []ActionType `json:"actions"`
}

func validateActions(raw json.RawMessage) (json.RawMessage, error) {
	var cfg ActionsConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}

	var ve ValidationError
	for i, action := range cfg.Actions {
		path := fmt.Sprintf("actions[%d]", i)
		if action.Key == "" {
			ve.add(path+".key", "is required")
		}
		if action.Label == "" {
			ve.add(path+".label", "is required")
		} else if len([]rune(action.Label)) > 30 {
			ve.add(path+".label", "must be 30 characters or fewer")
		}
		if action.Icon == "" {
			ve.add(path+".icon", "is required")
		} else if len([]rune(action.Icon)) > 4 {
			ve.add(path+".icon", "must be 4 characters or fewer")
		}
		if action.Target != nil && *action.Target < 0 {
			ve.add(path+".target", fmt.Sprintf("must be non-negative, got %d", *action.Target))
		}
	}

	if ve.HasErrors() {
		return nil, &ve
	}
	if cfg.Actions == nil {
		cfg.Actions = []ActionType{}
	}
	return marshal(&cfg), nil
}
