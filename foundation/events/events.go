// Package events provides a fanout of gateway events so connected clients
// can observe transaction executions as they commit.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer sizes each subscriber channel. A message is dropped for a
// subscriber whose channel is full rather than blocking the publisher.
const messageBuffer = 100

// Events maintains the set of subscriber channels keyed by a unique id.
type Events struct {
	subs map[string]chan string
	mu   sync.RWMutex
}

// New constructs an Events value for publishing and subscribing.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Subscribe registers the specified id and returns the channel events will
// be delivered on.
func (evt *Events) Subscribe(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	evt.subs[id] = ch
	return ch
}

// Unsubscribe closes and removes the channel registered under the
// specified id.
func (evt *Events) Unsubscribe(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)
	return nil
}

// Publish delivers the message to every subscriber without blocking on any
// of them.
func (evt *Events) Publish(format string, args ...any) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	msg := fmt.Sprintf(format, args...)
	for _, ch := range evt.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}
