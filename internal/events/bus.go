// Package events implements the daemon's in-process typed event bus:
// every component publishes domain events synchronously, and the control
// plane's WebSocket fan-out is just another subscriber.
package events

import (
	"reflect"
	"sort"
	"sync"
)

// Event is the marker interface every published event type implements.
// Name must be stable — it's what the WebSocket fan-out puts on the wire.
type Event interface {
	EventName() string
}

type subscription struct {
	priority int
	seq      int
	handler  func(Event)
	typ      reflect.Type
}

// Bus is a priority-ordered, synchronous, typed pub/sub dispatcher.
// There's no reflection in the hot path of Publish beyond the type
// lookup done once per event instance — handlers are invoked directly,
// not through a generic interface{} callback, so a bad payload type
// can't reach a handler that doesn't expect it.
type Bus struct {
	mu   sync.RWMutex
	subs map[reflect.Type][]subscription
	seq  int
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[reflect.Type][]subscription)}
}

// Subscribe registers handler for events of type E. Handlers with a
// higher priority run first; handlers of equal priority run in
// registration order. The returned func unsubscribes.
func Subscribe[E Event](b *Bus, priority int, handler func(E)) func() {
	var zero E
	typ := reflect.TypeOf(zero)

	b.mu.Lock()
	b.seq++
	sub := subscription{
		priority: priority,
		seq:      b.seq,
		handler: func(e Event) {
			handler(e.(E))
		},
		typ: typ,
	}
	b.subs[typ] = append(b.subs[typ], sub)
	sort.SliceStable(b.subs[typ], func(i, j int) bool {
		if b.subs[typ][i].priority != b.subs[typ][j].priority {
			return b.subs[typ][i].priority > b.subs[typ][j].priority
		}
		return b.subs[typ][i].seq < b.subs[typ][j].seq
	})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[typ]
		for i, s := range list {
			if s.seq == sub.seq {
				b.subs[typ] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Publish dispatches e synchronously to every subscriber of its concrete
// type, in priority order, on the calling goroutine. A handler panic is
// not recovered here — callers that publish from a server-managed
// goroutine should wrap their own handlers if they can't guarantee safety.
func (b *Bus) Publish(e Event) {
	typ := reflect.TypeOf(e)
	b.mu.RLock()
	list := make([]subscription, len(b.subs[typ]))
	copy(list, b.subs[typ])
	b.mu.RUnlock()

	for _, s := range list {
		s.handler(e)
	}
}

// Priority levels used across the daemon; components are free to use
// any int, these just keep the common cases consistent.
const (
	PriorityMonitor = -50 // logging/metrics subscribers: observe after normal handlers
	PriorityNormal  = 0
	PriorityLast    = -100 // WebSocket fan-out: broadcast after everyone else had a look
)
