// Package events fans out the event lines produced by the ledger packages to
// any number of subscribers, such as websocket clients.
package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// messageBuffer is the number of events a subscriber can fall behind before
// events to it are dropped.
const messageBuffer = 100

// Events maintains the subscribers by id. Every event sent is offered to
// each subscriber without blocking the sender.
type Events struct {
	mu      sync.RWMutex
	subs    map[string]chan string
	dropped atomic.Uint64
}

// New constructs an empty set of subscribers.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Handler returns an event handler for the ledger packages. Every event is
// logged with the handler's source id and a sequence number, then sent to
// the subscribers.
func (evt *Events) Handler(log *zap.SugaredLogger) func(v string, args ...any) {
	source := uuid.NewString()
	var seq atomic.Uint64

	return func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "source", source, "seq", seq.Add(1))
		evt.Send(s)
	}
}

// Acquire registers a subscriber and returns the channel its events arrive
// on. Acquiring an id that is already registered returns the same channel.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	evt.subs[id] = ch

	return ch
}

// Release removes the subscriber and closes its channel.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)

	return nil
}

// Shutdown removes every subscriber and closes their channels.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}

// Send offers the event to every subscriber. A subscriber whose buffer is
// full misses the event and the drop is counted.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subs {
		select {
		case ch <- s:
		default:
			evt.dropped.Add(1)
		}
	}
}

// Len returns the number of subscribers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// had fallen behind.
func (evt *Events) Dropped() uint64 {
	return evt.dropped.Load()
}
