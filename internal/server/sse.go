package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/groblegark/cadence/internal/idgen"
)

const (
	// sseRingBufferSize is the number of recent events kept in memory for
	// Last-Event-ID reconnection support.
	sseRingBufferSize = 1000

	// ssePingInterval is how often ping events are sent so proxies and
	// clients know the feed is alive.
	ssePingInterval = 30 * time.Second
)

// sseEvent is a single event stored in the ring buffer and sent to SSE clients.
type sseEvent struct {
	ID    uint64 // monotonically increasing sequence number
	Topic string
	Data  []byte // JSON-encoded payload
}

// sseHub fans out config-change events to connected SSE subscribers.
// It maintains an in-memory ring buffer for Last-Event-ID reconnection.
type sseHub struct {
	mu          sync.RWMutex
	subscribers map[string]*sseSubscriber // keyed by opaque token
	nextID      atomic.Uint64

	// Ring buffer for replay on reconnection.
	ringMu  sync.RWMutex
	ring    [sseRingBufferSize]sseEvent
	ringPos int // next write position (wraps around)
	ringLen int // number of valid entries (up to sseRingBufferSize)
}

// sseSubscriber represents a single connected SSE consumer.
type sseSubscriber struct {
	token  string
	topics []string       // topic glob patterns to match (empty = all)
	ch     chan *sseEvent // buffered channel for event delivery
}

func newSSEHub() *sseHub {
	return &sseHub{
		subscribers: make(map[string]*sseSubscriber),
	}
}

// broadcast sends an event to all subscribers whose topic filters match.
func (h *sseHub) broadcast(topic string, payload []byte) {
	id := h.nextID.Add(1)
	evt := &sseEvent{
		ID:    id,
		Topic: topic,
		Data:  payload,
	}

	// Store in ring buffer.
	h.ringMu.Lock()
	h.ring[h.ringPos] = *evt
	h.ringPos = (h.ringPos + 1) % sseRingBufferSize
	if h.ringLen < sseRingBufferSize {
		h.ringLen++
	}
	h.ringMu.Unlock()

	// Fan out to connected subscribers.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		if sub.matchesTopic(topic) {
			select {
			case sub.ch <- evt:
			default:
				// Drop if subscriber is slow so the publisher never blocks.
			}
		}
	}
}

// broadcastEvent marshals and broadcasts an event payload.
func (h *sseHub) broadcastEvent(topic string, event any, logger *slog.Logger) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	h.broadcast(topic, payload)
}

// subscribe registers a new subscriber under a fresh opaque token.
// Call unsubscribe with the subscriber when done.
func (h *sseHub) subscribe(topics []string) (*sseSubscriber, error) {
	token, err := idgen.GenerateWithPrefix("sub-")
	if err != nil {
		return nil, fmt.Errorf("generate subscriber token: %w", err)
	}
	sub := &sseSubscriber{
		token:  token,
		topics: topics,
		ch:     make(chan *sseEvent, 64),
	}
	h.mu.Lock()
	h.subscribers[token] = sub
	h.mu.Unlock()
	return sub, nil
}

// unsubscribe removes a subscriber from the hub.
func (h *sseHub) unsubscribe(sub *sseSubscriber) {
	h.mu.Lock()
	delete(h.subscribers, sub.token)
	h.mu.Unlock()
}

// subscriberCount returns the number of connected subscribers.
func (h *sseHub) subscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// eventsSince returns buffered events with ID > lastID, in order.
// Returns nil if nothing newer is buffered.
func (h *sseHub) eventsSince(lastID uint64) []*sseEvent {
	h.ringMu.RLock()
	defer h.ringMu.RUnlock()

	if h.ringLen == 0 {
		return nil
	}

	var result []*sseEvent

	// Walk the ring buffer from oldest to newest.
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += sseRingBufferSize
	}
	for i := range h.ringLen {
		idx := (start + i) % sseRingBufferSize
		evt := &h.ring[idx]
		if evt.ID > lastID {
			result = append(result, evt)
		}
	}

	return result
}

// matchesTopic checks whether the subscriber's topic filters match the given
// topic. An empty filter list matches all topics.
func (s *sseSubscriber) matchesTopic(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}
	for _, pattern := range s.topics {
		if matchTopicPattern(pattern, topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a pattern.
// Supports "*" as a single-segment wildcard and ">" as a multi-segment
// suffix wildcard (NATS-style).
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			// ">" matches one or more remaining segments.
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}

	return len(patParts) == len(topParts)
}

// connectedPayload is the data of the initial "connected" event.
type connectedPayload struct {
	Subscriber string `json:"subscriber"`
	Time       string `json:"time"`
}

// handleConfigStream handles GET /v1/config/stream (SSE endpoint).
func (s *TrackerServer) handleConfigStream(w http.ResponseWriter, r *http.Request) {
	// Ensure response supports flushing (required for SSE).
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Parse optional topic filters from query params.
	var topics []string
	if q := r.URL.Query().Get("topics"); q != "" {
		for _, t := range strings.Split(q, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				topics = append(topics, t)
			}
		}
	}

	sub, err := s.sseHub.subscribe(topics)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to subscribe")
		return
	}
	defer s.sseHub.unsubscribe(sub)

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)

	// Announce the subscription before any change events.
	connected, _ := json.Marshal(connectedPayload{
		Subscriber: sub.token,
		Time:       time.Now().UTC().Format(time.RFC3339),
	})
	fmt.Fprintf(w, "event:connected\ndata:%s\n\n", connected)
	flusher.Flush()

	// If the client sent Last-Event-ID, replay buffered events.
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if lastID, err := strconv.ParseUint(lastIDStr, 10, 64); err == nil {
			for _, evt := range s.sseHub.eventsSince(lastID) {
				if sub.matchesTopic(evt.Topic) {
					writeSSEEvent(w, evt)
				}
			}
			flusher.Flush()
		}
	}

	// Stream events until the client disconnects.
	ctx := r.Context()
	ping := time.NewTicker(ssePingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sub.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, "event:ping\ndata:{\"time\":%q}\n\n", time.Now().UTC().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a single SSE event to the writer.
func writeSSEEvent(w http.ResponseWriter, evt *sseEvent) {
	fmt.Fprintf(w, "id:%d\n", evt.ID)
	fmt.Fprintf(w, "event:%s\n", evt.Topic)
	fmt.Fprintf(w, "data:%s\n\n", evt.Data)
}
