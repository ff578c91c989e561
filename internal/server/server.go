// Package server exposes the tracker's HTTP/JSON API and the SSE change feed.
package server

import (
	"context"
	"log/slog"

	"github.com/groblegark/cadence/internal/configstore"
	"github.com/groblegark/cadence/internal/daily"
	"github.com/groblegark/cadence/internal/events"
	"github.com/groblegark/cadence/internal/store"
)

// TrackerServer serves the config and daily-metrics APIs. Config changes fan
// out to SSE subscribers and, when configured, to the event bus.
type TrackerServer struct {
	configs *configstore.Service
	daily   *daily.Service
	sseHub  *sseHub
	logger  *slog.Logger
}

// Options configures a TrackerServer.
type Options struct {
	// MetricsDisabled constructs the daily service without a backend; its
	// endpoints respond 501.
	MetricsDisabled bool
	Logger          *slog.Logger
}

// NewTrackerServer wires the config and daily services over the given store
// and publisher. Every publish also broadcasts on the server's SSE hub.
func NewTrackerServer(s store.Store, p events.Publisher, opts Options) *TrackerServer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		p = &events.NoopPublisher{}
	}

	srv := &TrackerServer{
		sseHub: newSSEHub(),
		logger: logger,
	}

	fanout := &fanoutPublisher{next: p, hub: srv.sseHub, logger: logger}
	srv.configs = configstore.New(s, fanout, logger)

	dailyStore := s
	if opts.MetricsDisabled {
		dailyStore = nil
	}
	srv.daily = daily.New(dailyStore, fanout, logger)

	return srv
}

// Configs returns the config service, for CLI-side reuse.
func (s *TrackerServer) Configs() *configstore.Service { return s.configs }

// Daily returns the daily-metrics service.
func (s *TrackerServer) Daily() *daily.Service { return s.daily }

// fanoutPublisher forwards every event to the wrapped publisher and mirrors
// it onto the SSE hub so connected dashboards see changes immediately.
type fanoutPublisher struct {
	next   events.Publisher
	hub    *sseHub
	logger *slog.Logger
}

func (p *fanoutPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.hub.broadcastEvent(topic, event, p.logger)
	return p.next.Publish(ctx, topic, event)
}

func (p *fanoutPublisher) Close() error {
	return p.next.Close()
}
