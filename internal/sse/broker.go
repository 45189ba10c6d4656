// Package sse implements a Server-Sent Events broker for task change
// notifications.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// TaskEvent reports a change to one task. Change is sent as task.changed;
// Status, when set, is sent as status.updated. A nil Status sends only the
// task name.
type TaskEvent struct {
	Task   string
	Change interface{}
	Status interface{}
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, per-task status throttle and pending statuses). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	statusMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	taskEventCh   chan TaskEvent
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. status.updated events are emitted at
// most once per statusThrottle for each task; a status that arrives inside
// the window replaces any pending one and is sent when the window ends.
func NewBroker(statusThrottle time.Duration) *Broker {
	if statusThrottle <= 0 {
		statusThrottle = 2 * time.Second
	}

	b := &Broker{
		statusMin:     statusThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		taskEventCh:   make(chan TaskEvent, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	lastStatus := make(map[string]time.Time)
	pending := make(map[string]interface{})

	// flushTimer fires when the earliest pending status may be sent.
	var flushTimer *time.Timer
	var flushCh <-chan time.Time
	armFlush := func(now time.Time) {
		var next time.Duration = -1
		for task := range pending {
			wait := b.statusMin - now.Sub(lastStatus[task])
			if next < 0 || wait < next {
				next = wait
			}
		}
		if next < 0 {
			flushCh = nil
			return
		}
		if flushTimer == nil {
			flushTimer = time.NewTimer(next)
		} else {
			flushTimer.Reset(next)
		}
		flushCh = flushTimer.C
	}
	defer func() {
		if flushTimer != nil {
			flushTimer.Stop()
		}
	}()

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case ev := <-b.taskEventCh:
			broadcast(Event{Type: "task.changed", Data: ev.Change})

			status := ev.Status
			if status == nil {
				status = map[string]string{"task": ev.Task}
			}
			now := time.Now()
			if last, ok := lastStatus[ev.Task]; !ok || now.Sub(last) >= b.statusMin {
				lastStatus[ev.Task] = now
				delete(pending, ev.Task)
				broadcast(Event{Type: "status.updated", Data: status})
			} else {
				pending[ev.Task] = status
			}
			armFlush(now)

		case now := <-flushCh:
			for task, status := range pending {
				if now.Sub(lastStatus[task]) >= b.statusMin {
					lastStatus[task] = now
					delete(pending, task)
					broadcast(Event{Type: "status.updated", Data: status})
				}
			}
			armFlush(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishTaskEvent publishes a task.changed event and a throttled
// status.updated event for ev.Task.
func (b *Broker) PublishTaskEvent(ev TaskEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.taskEventCh <- ev:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
