package audit

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type panickingSink struct{}

func (panickingSink) Emit(context.Context, Event) { panic("sink failure") }

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, Event) { <-s.release }

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Kind: "LOGIN_SUCCESS", Severity: SeverityInfo, Success: true})
	}
	d.Close()

	if got := sink.count(); got != 10 {
		t.Fatalf("delivered %d events, want 10", got)
	}
	if d.Dropped() != 0 {
		t.Fatalf("dropped = %d, want 0", d.Dropped())
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &recordingSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}

	// Nil receivers are safe to use.
	d.Emit(context.Background(), Event{Kind: "LOGIN_SUCCESS"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reports drops")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	blocking := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, blocking)

	// One event occupies the worker, one fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Kind: "LOGIN_FAILURE"})
	}

	deadline := time.Now().Add(time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a full buffer")
	}

	close(blocking.release)
	d.Close()
}

func TestDispatcherSurvivesSinkPanic(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: true}, panickingSink{})

	d.Emit(context.Background(), Event{Kind: "LOGIN_FAILURE"})
	d.Emit(context.Background(), Event{Kind: "LOGIN_FAILURE"})
	d.Close()

	if d.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2 panicking emits counted", d.Dropped())
	}
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, DropIfFull: true}, sink)
	d.Close()

	d.Emit(context.Background(), Event{Kind: "LOGIN_SUCCESS"})
	if got := sink.count(); got != 0 {
		t.Fatalf("events after close = %d, want 0", got)
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Kind:      "ACCOUNT_LOCKED",
		Severity:  SeverityWarn,
		SubjectID: "subject-1",
		Error:     "account locked",
		Detail:    map[string]string{"failed_attempts": "5"},
	})
	sink.Emit(context.Background(), Event{Kind: "LOGOUT", Severity: SeverityInfo, Success: true})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"kind":"ACCOUNT_LOCKED"`) || !strings.Contains(lines[0], `"severity":"warn"`) {
		t.Fatalf("first line missing fields: %s", lines[0])
	}
	if !strings.Contains(lines[0], `"failed_attempts":"5"`) {
		t.Fatalf("detail not serialized: %s", lines[0])
	}
	// Empty optional fields stay off the wire.
	if strings.Contains(lines[1], "subject_id") || strings.Contains(lines[1], "detail") {
		t.Fatalf("second line carries empty fields: %s", lines[1])
	}
}

func TestChannelSink(t *testing.T) {
	sink := NewChannelSink(2)
	sink.Emit(context.Background(), Event{Kind: "LOGIN_SUCCESS"})

	select {
	case event := <-sink.Events():
		if event.Kind != "LOGIN_SUCCESS" {
			t.Fatalf("kind = %q", event.Kind)
		}
	default:
		t.Fatal("no event buffered")
	}

	// A full channel respects context cancellation instead of blocking.
	sink.Emit(context.Background(), Event{})
	sink.Emit(context.Background(), Event{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		sink.Emit(ctx, Event{})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on cancelled context")
	}
}
