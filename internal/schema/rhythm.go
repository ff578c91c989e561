package schema

import (
	"encoding/json"
	"fmt"
)

// RhythmBlock is one timed block in the daily operating rhythm.
type RhythmBlock struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // minutes
	Emoji    string `json:"emoji"`
	Order    int    `json:"order"`
	Enabled  bool   `json:"enabled"`
}

// UnmarshalJSON defaults enabled to true when the field is absent.
func (b *RhythmBlock) UnmarshalJSON(data []byte) error {
	type alias RhythmBlock
	aux := struct {
		*alias
		Enabled *bool `json:"enabled"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Enabled = aux.Enabled == nil || *aux.Enabled
	return nil
}

// RhythmConfig is the full operating-rhythm configuration.
type RhythmConfig struct {
	Blocks []RhythmBlock `json:"blocks"`
}

func validateRhythm(raw json.RawMessage) (json.RawMessage, error) {
	var cfg RhythmConfig
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}

	var ve ValidationError
	for i, block := range cfg.Blocks {
		path := fmt.Sprintf("blocks[%d]", i)
		if block.ID == "" {
			ve.add(path+".id", "is required")
		}
		if block.Name == "" {
			ve.add(path+".name", "is required")
		} else if len([]rune(block.Name)) > 50 {
			ve.add(path+".name", "must be 50 characters or fewer")
		}
		if block.Duration < 1 || block.Duration > 180 {
			ve.add(path+".duration", fmt.Sprintf("must be between 1 and 180, got %d", block.Duration))
		}
		if block.Emoji == "" {
			ve.add(path+".emoji", "is required")
		} else if len([]rune(block.Emoji)) > 4 {
			ve.add(path+".emoji", "must be 4 characters or fewer")
		}
		if block.Order < 0 {
			ve.add(path+".order", fmt.Sprintf("must be non-negative, got %d", block.Order))
		}
	}

	if ve.HasErrors() {
		return nil, &ve
	}
	if cfg.Blocks == nil {
		cfg.Blocks = []RhythmBlock{}
	}
	return marshal(&cfg), nil
}
