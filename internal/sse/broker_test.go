package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "task.changed", Data: map[string]string{"task": "compile"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: task.changed") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"task":"compile"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// drain collects every message that arrives on ch within d.
func drain(ch chan []byte, d time.Duration) []string {
	var out []string
	deadline := time.After(d)
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		case <-deadline:
			return out
		}
	}
}

func count(msgs []string, substrs ...string) int {
	n := 0
next:
	for _, m := range msgs {
		for _, s := range substrs {
			if !strings.Contains(m, s) {
				continue next
			}
		}
		n++
	}
	return n
}

func TestPublishTaskEvent_StatusThrottle(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishTaskEvent(TaskEvent{
		Task:   "compile",
		Change: map[string]any{"task": "compile", "properties": []string{"sources"}},
		Status: map[string]any{"task": "compile", "up_to_date": false},
	})
	// Throttled per task: a second task still gets its status.
	b.PublishTaskEvent(TaskEvent{Task: "test", Change: map[string]any{"task": "test"}})
	// Inside compile's window: held back, then sent once the window ends.
	b.PublishTaskEvent(TaskEvent{
		Task:   "compile",
		Change: map[string]any{"task": "compile"},
		Status: map[string]any{"task": "compile", "up_to_date": true},
	})

	early := drain(ch, 100*time.Millisecond)
	if n := count(early, "event: task.changed"); n != 3 {
		t.Errorf("task events = %d, want 3", n)
	}
	if count(early, "event: task.changed", `"properties":["sources"]`) != 1 {
		t.Errorf("first change payload missing: %q", early)
	}
	if n := count(early, "event: status.updated"); n != 2 {
		t.Errorf("immediate status events = %d, want 2", n)
	}
	if count(early, "event: status.updated", `"up_to_date":false`) != 1 {
		t.Errorf("compile status payload missing: %q", early)
	}
	if count(early, "event: status.updated", `"task":"test"`) != 1 {
		t.Errorf("test status missing: %q", early)
	}

	late := drain(ch, 600*time.Millisecond)
	if n := count(late, "event: status.updated"); n != 1 {
		t.Fatalf("trailing status events = %d, want 1: %q", n, late)
	}
	if count(late, `"task":"compile"`, `"up_to_date":true`) != 1 {
		t.Errorf("trailing status is not the latest one: %q", late)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "task.changed", Data: map[string]string{"task": "x"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: task.changed") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "task.changed", Data: map[string]string{"task": "x"}})
	b.PublishTaskEvent(TaskEvent{Task: "x"})
}
