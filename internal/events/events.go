package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/groblegark/cadence/internal/model"
)

// Event topic constants
const (
	TopicConfigUpdated = "cadence.config.updated"
	TopicConfigReset   = "cadence.config.reset"
	TopicDailyUpserted = "cadence.daily.upserted"

	// TopicWildcard matches every cadence subject.
	TopicWildcard = "cadence.>"
)

// Event types

type ConfigUpdated struct {
	Category string          `json:"category"`
	Data     json.RawMessage `json:"data"`
}

type ConfigReset struct {
	Category string          `json:"category"`
	Data     json.RawMessage `json:"data"`
}

type DailyUpserted struct {
	Row *model.DailyMetrics `json:"row"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Envelope is the wire form of every event on the bus. The topic and publish
// time ride along with the payload so wildcard subscribers can tell events
// apart without re-deriving the subject.
type Envelope struct {
	Topic       string          `json:"topic"`
	PublishedAt time.Time       `json:"published_at"`
	Data        json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a raw bus message.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	if env.Topic == "" {
		return nil, fmt.Errorf("event envelope missing topic")
	}
	return &env, nil
}
