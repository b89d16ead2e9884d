package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event records one security-relevant step of the credential lifecycle:
// a register, login, token rotation, replay detection, logout, or
// federated provisioning. Failed events carry the rejection in Error;
// Metadata holds operation-specific context such as the attempted
// email.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink consumes delivered events. Implementations are called from the
// dispatcher's single delivery goroutine and need no internal locking
// for that path.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards everything. It backs engines built without an
// explicit sink.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink hands events to a consumer goroutine, typically a test
// or an in-process alerting loop reading [ChannelSink.Events].
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink renders events as JSON lines, one object per event.
// The server points it at the process log writer so the audit trail
// lands next to the operational log.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		return &JSONWriterSink{}
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.enc == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}
