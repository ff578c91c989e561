// Package client provides a transport-agnostic interface for the cadence
// service and an HTTP/JSON implementation that talks to the REST API.
package client

import (
	"context"
	"encoding/json"

	"github.com/groblegark/cadence/internal/model"
	"github.com/groblegark/cadence/internal/schema"
)

// TrackerClient is the interface that all cadence CLI commands use to
// communicate with the server. It is implemented by HTTPClient (default) and
// can be backed by any transport.
type TrackerClient interface {
	// Config
	GetConfig(ctx context.Context, cat schema.Category) (json.RawMessage, error)
	SetConfig(ctx context.Context, cat schema.Category, value json.RawMessage) (json.RawMessage, error)
	ResetConfig(ctx context.Context, cat schema.Category) (json.RawMessage, error)
	ConfigHistory(ctx context.Context, cat schema.Category, limit int) ([]*model.ConfigHistoryEntry, error)
	ExportConfigs(ctx context.Context) (*model.ConfigSnapshot, error)
	ImportConfigs(ctx context.Context, snapshot *model.ConfigSnapshot) ([]string, error)

	// Daily metrics
	GetDaily(ctx context.Context, date string) (*model.DailyMetrics, error)
	GetDailyRange(ctx context.Context, start, end string) ([]*model.DailyMetrics, error)
	UpsertDaily(ctx context.Context, row *model.DailyMetrics) error
	ExportDaily(ctx context.Context) (*model.DailyExport, error)
	ImportDaily(ctx context.Context, export *model.DailyExport) (int, error)

	// Events
	Watch(ctx context.Context, topics []string) (<-chan StreamEvent, error)

	// Health
	Health(ctx context.Context) (*HealthStatus, error)

	// Lifecycle
	Close() error
}

// HealthStatus is the response from the health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Metrics bool   `json:"metrics"`
}

// StreamEvent is one event received from the SSE feed.
type StreamEvent struct {
	ID    string
	Event string
	Data  json.RawMessage
}

// configResponse is the envelope used by the config endpoints.
type configResponse struct {
	Category string          `json:"category"`
	Data     json.RawMessage `json:"data"`
}

// historyResponse is the envelope used by the history endpoint.
type historyResponse struct {
	Category string                      `json:"category"`
	History  []*model.ConfigHistoryEntry `json:"history"`
}
