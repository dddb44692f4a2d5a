// Package sse implements a Server-Sent Events broker that tells preview
// clients when the site has been rebuilt.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Event types.
const (
	EventRebuilt = "site.rebuilt"
	EventFailed  = "site.failed"
)

const (
	// DefaultKeepAlive is used when NewBroker is given a non-positive interval.
	DefaultKeepAlive = 15 * time.Second

	// reconnectDelay is sent to clients as the SSE retry hint.
	reconnectDelay = time.Second

	clientBuffer = 16
	eventBuffer  = 64
)

// Event is one message for every connected client.
type Event struct {
	Type string
	Data any
}

// RebuiltData is the payload of a site.rebuilt event.
type RebuiltData struct {
	BuildID string `json:"build_id"`
	Pages   int    `json:"pages"`
}

// FailedData is the payload of a site.failed event.
type FailedData struct {
	Error string `json:"error"`
}

var keepAliveFrame = []byte(": keep-alive\n\n")

type clientSet map[chan []byte]struct{}

// Broker fans build events out to preview pages.
//
// The client set belongs to a single loop goroutine. Other methods hand the
// loop a closure over ops and never touch the set directly. Slow clients lose
// frames rather than stall the loop.
type Broker struct {
	keepAlive time.Duration

	ops    chan func(clientSet)
	events chan Event

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewBroker starts a broker that writes a keep-alive comment to idle
// connections every keepAlive.
func NewBroker(keepAlive time.Duration) *Broker {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	b := &Broker{
		keepAlive: keepAlive,
		ops:       make(chan func(clientSet)),
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := make(clientSet)
	ticker := time.NewTicker(b.keepAlive)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-b.done:
			for ch := range clients {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(clients)
		case ev := <-b.events:
			seq++
			frame, err := encode(seq, ev)
			if err != nil {
				continue
			}
			clients.send(frame)
		case <-ticker.C:
			clients.send(keepAliveFrame)
		}
	}
}

func (c clientSet) send(frame []byte) {
	for ch := range c {
		select {
		case ch <- frame:
		default:
		}
	}
}

// encode renders ev as one SSE frame.
func encode(id uint64, ev Event) ([]byte, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(data)+len(ev.Type)+32)
	frame = append(frame, "id: "...)
	frame = strconv.AppendUint(frame, id, 10)
	frame = append(frame, "\nevent: "...)
	frame = append(frame, ev.Type...)
	frame = append(frame, "\ndata: "...)
	frame = append(frame, data...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// do hands op to the loop. It reports false once the broker has stopped.
func (b *Broker) do(op func(clientSet)) bool {
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the loop and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	b.stopOnce.Do(func() { close(b.done) })
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.do(func(c clientSet) { c[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(c clientSet) {
		if _, ok := c[ch]; ok {
			delete(c, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.do(func(c clientSet) { n <- len(c) }) {
		return 0
	}
	return <-n
}

// Publish queues ev for every connected client. Events published after
// Close are dropped.
func (b *Broker) Publish(ev Event) {
	select {
	case <-b.done:
	case b.events <- ev:
	case <-b.stopped:
	}
}

// PublishRebuilt announces a successful build.
func (b *Broker) PublishRebuilt(buildID string, pages int) {
	b.Publish(Event{Type: EventRebuilt, Data: RebuiltData{BuildID: buildID, Pages: pages}})
}

// PublishFailed announces a failed build.
func (b *Broker) PublishFailed(err error) {
	b.Publish(Event{Type: EventFailed, Data: FailedData{Error: err.Error()}})
}

// ServeHTTP streams events to one client until it disconnects or the broker
// closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "retry: %d\n\n", reconnectDelay.Milliseconds())
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
