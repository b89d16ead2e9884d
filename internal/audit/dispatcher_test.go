package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)

	d.Emit(context.Background(), Event{EventType: "login", UserID: "u1", Success: true})

	select {
	case event := <-sink.Events():
		if event.EventType != "login" || event.UserID != "u1" || !event.Success {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	d.Close()
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}

	// Nil receivers are safe.
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestDispatcherCloseDrainsBuffer(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{EventType: "logout"})
	}
	d.Close()

	lines := strings.Count(buf.String(), "\n")
	if lines != 5 {
		t.Fatalf("drained %d events, want 5", lines)
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer, the rest
	// must be counted as dropped rather than blocking the caller.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "login"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events")
	}

	close(block)
	d.Close()
}

func TestDispatcherBlockingModeHonorsContext(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: false}, sink)

	// Occupy the worker and fill the buffer.
	d.Emit(context.Background(), Event{EventType: "login"})
	d.Emit(context.Background(), Event{EventType: "login"})

	// A third emit would wait for room; a cancelled context must free
	// the caller instead of counting a drop.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Emit(ctx, Event{EventType: "login"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("blocking emit did not respect context cancellation")
	}
	if d.Dropped() != 0 {
		t.Fatalf("blocking mode counted %d drops", d.Dropped())
	}

	close(block)
	d.Close()
}

func TestDispatcherIgnoresEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	d.Close()

	d.Emit(context.Background(), Event{EventType: "late"})

	select {
	case event := <-sink.Events():
		t.Fatalf("unexpected delivery after close: %+v", event)
	default:
	}
}

func TestJSONWriterSinkShape(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EventType: "refresh_replay",
		UserID:    "u9",
		Error:     "invalid credentials",
	})

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["event_type"] != "refresh_replay" || decoded["user_id"] != "u9" {
		t.Fatalf("unexpected payload: %v", decoded)
	}
	if _, ok := decoded["ip"]; ok {
		t.Fatal("empty fields must be omitted")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s blockingSink) Emit(ctx context.Context, event Event) {
	<-s.release
}
