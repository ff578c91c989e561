package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/groblegark/cadence/internal/events"
)

func mustSubscribe(t *testing.T, hub *sseHub, topics []string) *sseSubscriber {
	t.Helper()
	sub, err := hub.subscribe(topics)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	return sub
}

func TestSSEHub_BroadcastAndReceive(t *testing.T) {
	hub := newSSEHub()

	sub := mustSubscribe(t, hub, nil) // all topics
	defer hub.unsubscribe(sub)

	hub.broadcast(events.TopicConfigUpdated, []byte(`{"category":"rhythm"}`))

	select {
	case evt := <-sub.ch:
		if evt.Topic != events.TopicConfigUpdated {
			t.Fatalf("expected topic=%q, got %q", events.TopicConfigUpdated, evt.Topic)
		}
		if string(evt.Data) != `{"category":"rhythm"}` {
			t.Fatalf("unexpected data: %s", evt.Data)
		}
		if evt.ID != 1 {
			t.Fatalf("expected id=1, got %d", evt.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSSEHub_OpaqueTokens(t *testing.T) {
	hub := newSSEHub()

	a := mustSubscribe(t, hub, nil)
	b := mustSubscribe(t, hub, nil)
	defer hub.unsubscribe(a)
	defer hub.unsubscribe(b)

	if a.token == b.token {
		t.Fatalf("subscriber tokens must be unique, both %q", a.token)
	}
	if !strings.HasPrefix(a.token, "sub-") {
		t.Fatalf("token %q missing sub- prefix", a.token)
	}
	if hub.subscriberCount() != 2 {
		t.Fatalf("subscriberCount = %d, want 2", hub.subscriberCount())
	}
}

func TestSSEHub_TopicFiltering(t *testing.T) {
	hub := newSSEHub()

	sub := mustSubscribe(t, hub, []string{"cadence.config.*"})
	defer hub.unsubscribe(sub)

	hub.broadcast(events.TopicDailyUpserted, []byte(`{}`))
	hub.broadcast(events.TopicConfigUpdated, []byte(`{"category":"actions"}`))

	select {
	case evt := <-sub.ch:
		if evt.Topic != events.TopicConfigUpdated {
			t.Fatalf("expected config event, got %q", evt.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	// The daily event should have been filtered.
	select {
	case evt := <-sub.ch:
		t.Fatalf("unexpected event: topic=%q", evt.Topic)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_Unsubscribe(t *testing.T) {
	hub := newSSEHub()

	sub := mustSubscribe(t, hub, nil)
	hub.unsubscribe(sub)

	if hub.subscriberCount() != 0 {
		t.Fatalf("subscriberCount = %d after unsubscribe", hub.subscriberCount())
	}

	hub.broadcast(events.TopicConfigUpdated, []byte(`{}`))

	select {
	case <-sub.ch:
		t.Fatal("should not receive events after unsubscribe")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSEHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := newSSEHub()

	sub := mustSubscribe(t, hub, nil)
	defer hub.unsubscribe(sub)

	// Never read from sub.ch; overflow its buffer. broadcast must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			hub.broadcast(events.TopicConfigUpdated, []byte(`{}`))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow subscriber")
	}
}

func TestSSEHub_EventsSince(t *testing.T) {
	hub := newSSEHub()

	for range 5 {
		hub.broadcast(events.TopicConfigUpdated, []byte(`{}`))
	}

	evts := hub.eventsSince(2)
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	if evts[0].ID != 3 || evts[1].ID != 4 || evts[2].ID != 5 {
		t.Fatalf("expected IDs [3,4,5], got [%d,%d,%d]", evts[0].ID, evts[1].ID, evts[2].ID)
	}
}

func TestSSEHub_EventsSince_Empty(t *testing.T) {
	hub := newSSEHub()
	if evts := hub.eventsSince(0); len(evts) != 0 {
		t.Fatalf("expected 0 events, got %d", len(evts))
	}
}

func TestSSEHub_RingBufferWrap(t *testing.T) {
	hub := newSSEHub()

	total := sseRingBufferSize + 100
	for range total {
		hub.broadcast(events.TopicConfigUpdated, []byte(`{}`))
	}

	// Only the newest sseRingBufferSize events are replayable.
	evts := hub.eventsSince(0)
	if len(evts) != sseRingBufferSize {
		t.Fatalf("expected %d events, got %d", sseRingBufferSize, len(evts))
	}
	if evts[0].ID != uint64(total-sseRingBufferSize+1) {
		t.Fatalf("oldest replayable ID = %d", evts[0].ID)
	}
}

func TestMatchTopicPattern(t *testing.T) {
	for _, tc := range []struct {
		pattern, topic string
		want           bool
	}{
		{"cadence.config.updated", "cadence.config.updated", true},
		{"cadence.config.*", "cadence.config.updated", true},
		{"cadence.config.*", "cadence.config.reset", true},
		{"cadence.config.*", "cadence.daily.upserted", false},
		{"cadence.>", "cadence.config.updated", true},
		{"cadence.>", "cadence.daily.upserted", true},
		{"cadence.>", "cadence", false},
		{"*.config.updated", "cadence.config.updated", true},
		{"cadence.config", "cadence.config.updated", false},
	} {
		if got := matchTopicPattern(tc.pattern, tc.topic); got != tc.want {
			t.Errorf("matchTopicPattern(%q, %q) = %v, want %v", tc.pattern, tc.topic, got, tc.want)
		}
	}
}

// startStreamClient opens an SSE request against the handler and returns the
// recorder plus its cancel and done signals.
func startStreamClient(handler http.Handler, path string, header map[string]string) (*httptest.ResponseRecorder, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handler.ServeHTTP(rec, req)
	}()
	return rec, cancel, done
}

func TestHandleConfigStream_ConnectedEvent(t *testing.T) {
	_, _, handler := newTestServer()

	rec, cancel, done := startStreamClient(handler, "/v1/config/stream", nil)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "event:connected") {
		t.Fatalf("expected connected event, got:\n%s", body)
	}
	if !strings.Contains(body, `"subscriber":"sub-`) {
		t.Fatalf("expected subscriber token in connected payload, got:\n%s", body)
	}
}

func TestHandleConfigStream_ReceivesConfigChanges(t *testing.T) {
	_, _, handler := newTestServer()

	rec, cancel, done := startStreamClient(handler, "/v1/config/stream", nil)
	time.Sleep(50 * time.Millisecond)

	// Mutate a config through the API; the stream must see it.
	body := []byte(`{"blocks":[{"id":"b1","name":"Focus","duration":25,"emoji":"x","order":0}]}`)
	if put := doRequest(handler, "PUT", "/v1/config/rhythm", body); put.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", put.Code)
	}

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	out := rec.Body.String()
	if !strings.Contains(out, "event:"+events.TopicConfigUpdated) {
		t.Fatalf("expected %s event, got:\n%s", events.TopicConfigUpdated, out)
	}
	if !strings.Contains(out, `"category":"rhythm"`) {
		t.Fatalf("expected category in payload, got:\n%s", out)
	}
}

func TestHandleConfigStream_TopicFilter(t *testing.T) {
	srv, _, handler := newTestServer()

	rec, cancel, done := startStreamClient(handler, "/v1/config/stream?topics=cadence.daily.*", nil)
	time.Sleep(50 * time.Millisecond)

	srv.sseHub.broadcast(events.TopicConfigUpdated, []byte(`{"category":"rhythm"}`))
	srv.sseHub.broadcast(events.TopicDailyUpserted, []byte(`{"row":null}`))

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, "event:"+events.TopicConfigUpdated) {
		t.Fatalf("config event should be filtered, got:\n%s", body)
	}
	if !strings.Contains(body, "event:"+events.TopicDailyUpserted) {
		t.Fatalf("expected daily event, got:\n%s", body)
	}
}

func TestHandleConfigStream_LastEventID(t *testing.T) {
	srv, _, handler := newTestServer()

	srv.sseHub.broadcast(events.TopicConfigUpdated, []byte(`{"n":1}`))
	srv.sseHub.broadcast(events.TopicConfigUpdated, []byte(`{"n":2}`))
	srv.sseHub.broadcast(events.TopicConfigReset, []byte(`{"n":3}`))

	rec, cancel, done := startStreamClient(handler, "/v1/config/stream",
		map[string]string{"Last-Event-ID": "1"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if strings.Contains(body, `data:{"n":1}`) {
		t.Fatalf("event 1 should be skipped, got:\n%s", body)
	}
	if !strings.Contains(body, `data:{"n":2}`) || !strings.Contains(body, `data:{"n":3}`) {
		t.Fatalf("expected events 2 and 3 replayed, got:\n%s", body)
	}
}

func TestHandleConfigStream_MultipleClients(t *testing.T) {
	srv, _, handler := newTestServer()

	rec1, cancel1, done1 := startStreamClient(handler, "/v1/config/stream", nil)
	defer cancel1()
	rec2, cancel2, done2 := startStreamClient(handler, "/v1/config/stream", nil)
	defer cancel2()

	time.Sleep(50 * time.Millisecond)

	srv.sseHub.broadcast(events.TopicConfigUpdated, []byte(`{"category":"scoring"}`))

	time.Sleep(50 * time.Millisecond)
	cancel1()
	cancel2()
	<-done1
	<-done2

	for i, rec := range []*httptest.ResponseRecorder{rec1, rec2} {
		if !strings.Contains(rec.Body.String(), events.TopicConfigUpdated) {
			t.Fatalf("client %d missed the event:\n%s", i+1, rec.Body.String())
		}
	}
}

func TestHandleConfigStream_PrunesOnDisconnect(t *testing.T) {
	srv, _, handler := newTestServer()

	_, cancel, done := startStreamClient(handler, "/v1/config/stream", nil)
	time.Sleep(50 * time.Millisecond)

	if srv.sseHub.subscriberCount() != 1 {
		t.Fatalf("subscriberCount = %d, want 1", srv.sseHub.subscriberCount())
	}

	cancel()
	<-done

	if srv.sseHub.subscriberCount() != 0 {
		t.Fatalf("subscriberCount = %d after disconnect, want 0", srv.sseHub.subscriberCount())
	}
}

func TestSSEEventFormat(t *testing.T) {
	srv, _, handler := newTestServer()

	rec, cancel, done := startStreamClient(handler, "/v1/config/stream", nil)
	time.Sleep(50 * time.Millisecond)
	srv.sseHub.broadcast(events.TopicConfigUpdated, []byte(`{"category":"rhythm"}`))
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	// Parse the id/event/data triple for the change event.
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	var id, event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimPrefix(line, "id:")
		case strings.HasPrefix(line, "event:") && strings.TrimPrefix(line, "event:") != "connected":
			event = strings.TrimPrefix(line, "event:")
		case strings.HasPrefix(line, "data:") && event != "":
			if data == "" {
				data = strings.TrimPrefix(line, "data:")
			}
		}
	}
	if id != "1" {
		t.Fatalf("id = %q, want 1", id)
	}
	if event != events.TopicConfigUpdated {
		t.Fatalf("event = %q", event)
	}
	if data != `{"category":"rhythm"}` {
		t.Fatalf("data = %q", data)
	}
}
