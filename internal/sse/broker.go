// Package sse streams journal changes to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event is one message on the journal stream: a day change, a purge or a
// calendar refresh hint.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types.
const (
	TypeDayCreated      = "day.created"
	TypeDayUpdated      = "day.updated"
	TypeDayDeleted      = "day.deleted"
	TypeDaysCleared     = "days.cleared"
	TypeCalendarUpdated = "calendar.updated"
)

type dayEventReq struct {
	kind string
	date string
}

// Broker fans journal changes out to open browser tabs. Day events go out
// as they happen; calendar.updated is coalesced so a burst of saves repaints
// the month view once.
//
// The subscriber set and the last calendar send time belong to run; every
// exported method reaches them over a channel.
type Broker struct {
	calendarMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	dayEventCh    chan dayEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that sends calendar.updated at most once per
// calendarThrottle.
func NewBroker(calendarThrottle time.Duration) *Broker {
	if calendarThrottle <= 0 {
		calendarThrottle = 2 * time.Second
	}

	b := &Broker{
		calendarMin:   calendarThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		dayEventCh:    make(chan dayEventReq, 256),
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
	var lastCalendar time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", uuid.NewString(), event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow tab; it catches up on the next calendar refresh.
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

		case req := <-b.dayEventCh:
			data := map[string]string{"date": req.date}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeDayCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeDayUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeDayDeleted, Data: data})
			case "cleared":
				broadcast(Event{Type: TypeDaysCleared, Data: map[string]string{}})
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastCalendar) >= b.calendarMin {
				lastCalendar = now
				broadcast(Event{Type: TypeCalendarUpdated, Data: map[string]string{"month": req.date[:min(7, len(req.date))]}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close ends every open stream and stops the broker. Later calls are no-ops.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a stream. The channel is closed on Unsubscribe or Close.
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

// Unsubscribe drops a stream registered by Subscribe.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount reports how many streams are open.
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

// Publish sends event as is, without a calendar refresh.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDayEvent publishes a day change (kind is created, updated, deleted
// or cleared) followed by a throttled calendar.updated.
func (b *Broker) PublishDayEvent(kind, date string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.dayEventCh <- dayEventReq{kind: kind, date: date}:
	case <-b.stopped:
	}
}

// ServeHTTP streams journal events to one tab until it disconnects
// (GET /api/events).
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
