package daemon

import (
	"sync"
	"time"

	"github.com/theirongolddev/spendlens/internal/engine"
)

// Event types.
const (
	EventComputed    = "computed"
	EventDataChanged = "data_changed"
)

// Event is one entry in the event log.
type Event struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    string        `json:"user_id"`
	Operation *engine.Event `json:"operation,omitempty"`
	Detail    string        `json:"detail,omitempty"`
}

// EventLog keeps the most recent events and fans them out to subscribers.
type EventLog struct {
	mu     sync.RWMutex
	size   int
	nextID int64
	events []Event

	nextSubID int
	subs      map[int]chan Event
}

// NewEventLog creates a log holding at most size events.
func NewEventLog(size int) *EventLog {
	if size < 1 {
		size = 200
	}
	return &EventLog{size: size, subs: make(map[int]chan Event)}
}

// Record adapts engine events; pass it as engine.Options.OnEvent.
func (l *EventLog) Record(ev engine.Event) {
	l.Publish(Event{
		Type:      EventComputed,
		Timestamp: ev.Time,
		UserID:    ev.UserID,
		Operation: &ev,
	})
}

// Publish assigns an ID and appends the event. Slow subscribers miss events
// rather than block the publisher.
func (l *EventLog) Publish(ev Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	ev.ID = l.nextID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	l.events = append(l.events, ev)
	if len(l.events) > l.size {
		l.events = l.events[len(l.events)-l.size:]
	}
	for _, ch := range l.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return ev
}

// Recent returns a copy of the buffered events, oldest first.
func (l *EventLog) Recent() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Len returns the number of buffered events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

func (l *EventLog) subscribe(ch chan Event) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSubID++
	l.subs[l.nextSubID] = ch
	return l.nextSubID
}

func (l *EventLog) unsubscribe(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subs, id)
}

func (l *EventLog) subscribers() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}
