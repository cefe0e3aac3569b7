package vm

import (
	"sort"
	"sync"
	"time"
)

// Event types raised by hosts.
const (
	EventClick = "click"
	EventKey   = "key"
)

// Event is an input occurrence waiting to be dispatched to on handlers.
type Event struct {
	Type      string
	Args      []Value
	Timestamp time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType string, args ...Value) *Event {
	return &Event{Type: eventType, Args: args, Timestamp: time.Now()}
}

// DefaultQueueSize is the default maximum size of the event queue.
const DefaultQueueSize = 1000

// EventQueue is a thread-safe queue of events in chronological order.
// When the queue is full the oldest event is discarded.
type EventQueue struct {
	events  []*Event
	maxSize int
	mu      sync.Mutex
}

// NewEventQueue creates a new event queue with the default maximum size.
func NewEventQueue() *EventQueue {
	return NewEventQueueWithSize(DefaultQueueSize)
}

// NewEventQueueWithSize creates a new event queue with a custom maximum size.
func NewEventQueueWithSize(maxSize int) *EventQueue {
	if maxSize <= 0 {
		maxSize = DefaultQueueSize
	}
	return &EventQueue{
		events:  make([]*Event, 0, 16),
		maxSize: maxSize,
	}
}

// Push adds an event, assigning a timestamp if it has none.
func (eq *EventQueue) Push(event *Event) {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if len(eq.events) >= eq.maxSize {
		eq.events = eq.events[1:]
	}

	eq.events = append(eq.events, event)
	sort.SliceStable(eq.events, func(i, j int) bool {
		return eq.events[i].Timestamp.Before(eq.events[j].Timestamp)
	})
}

// Pop removes and returns the oldest event.
func (eq *EventQueue) Pop() (*Event, bool) {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	if len(eq.events) == 0 {
		return nil, false
	}
	event := eq.events[0]
	eq.events = eq.events[1:]
	return event, true
}

// Drain removes and returns every queued event, oldest first.
func (eq *EventQueue) Drain() []*Event {
	eq.mu.Lock()
	defer eq.mu.Unlock()

	events := eq.events
	eq.events = make([]*Event, 0, 16)
	return events
}

// Len returns the number of events in the queue.
func (eq *EventQueue) Len() int {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	return len(eq.events)
}

// Clear removes all events from the queue.
func (eq *EventQueue) Clear() {
	eq.mu.Lock()
	defer eq.mu.Unlock()
	eq.events = eq.events[:0]
}
