package imapclient

import (
	"sync"

	mail "github.com/azdigi/mailgo"
)

// EventType identifies the kind of unilateral server data an Event
// carries.
type EventType int

const (
	EventExists EventType = iota
	EventRecent
	EventExpunge
	EventBye
	EventFetch
	// EventVanished carries a QRESYNC VANISHED response (RFC 7162 §3.6),
	// the UID-based replacement for EXPUNGE once QRESYNC is enabled.
	EventVanished
)

// Event is one piece of unilateral (unsolicited) server data, delivered
// to every current Subscribe-er in publish order.
type Event struct {
	Type  EventType
	Num   uint32
	Text  string
	Flags []string
	// UIDs carries the vanished UID set for EventVanished.
	UIDs *mail.UIDSet
	// Earlier is true if a VANISHED response carried the EARLIER tag
	// (sent in response to a QRESYNC-enabled SELECT/FETCH, rather than
	// unsolicited expunge notification).
	Earlier bool
}

// VanishedUIDs expands a VANISHED event's UID set into a concrete
// slice, so a subscriber doesn't need to walk NumRange math itself to
// find out which messages disappeared.
func (e Event) VanishedUIDs() []mail.UID {
	if e.UIDs == nil {
		return nil
	}
	uids := make([]mail.UID, 0, len(e.UIDs.Ranges()))
	e.UIDs.ForEach(func(u mail.UID) {
		uids = append(uids, u)
	})
	return uids
}

// eventBus fans out Events to subscribers. A slow or absent subscriber
// never blocks the reader goroutine: each subscriber gets a small
// buffered channel, and a full channel just drops the event rather than
// stalling response processing.
type eventBus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new listener and returns the channel events
// arrive on along with an unsubscribe function.
func (b *eventBus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, 64)
	b.subs[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		if s, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(s)
		}
		b.mu.Unlock()
	}
}

func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
