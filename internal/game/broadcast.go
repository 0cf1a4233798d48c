package game

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// streamBufferSize bounds each subscriber's private delivery queue.
const streamBufferSize = 64

// Broadcaster fans events out to a session's subscribers. Each
// subscriber owns a bounded queue; publishing never blocks the turn
// loop. Delivery is at-most-once and best-effort: a subscriber that
// overflows has its oldest event dropped, and one that overflows twice
// in a row is disconnected.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription is one observer's private event queue. The channel is
// closed when the session ends, the subscriber falls too far behind, or
// Close is called.
type Subscription struct {
	ch     chan GameEvent
	b      *Broadcaster
	lagged bool
	done   bool
}

// NewBroadcaster creates an empty fan-out point for one session.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[*Subscription]struct{})}
}

// Subscribe attaches a new observer. The replay slice — the session's
// already-recorded event log — is delivered first, then live events, so
// a late joiner sees the full history in order. If the broadcaster is
// already closed the replay is still delivered and the channel closes
// immediately after.
func (b *Broadcaster) Subscribe(replay []GameEvent) *Subscription {
	sub := &Subscription{
		ch: make(chan GameEvent, len(replay)+streamBufferSize),
		b:  b,
	}
	for _, ev := range replay {
		sub.ch <- ev
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		sub.done = true
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Events is the subscriber's receive side.
func (s *Subscription) Events() <-chan GameEvent { return s.ch }

// Close detaches the subscriber and releases its queue. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.dropLocked(s)
}

// Publish enqueues the event to every current subscriber.
func (b *Broadcaster) Publish(ev GameEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		b.deliverLocked(sub, ev)
	}
}

func (b *Broadcaster) deliverLocked(sub *Subscription, ev GameEvent) {
	select {
	case sub.ch <- ev:
		sub.lagged = false
		return
	default:
	}

	if sub.lagged {
		// Second consecutive overflow: the subscriber is not keeping up.
		log.WithFields(log.Fields{"session": ev.SessionID, "turn": ev.Turn}).
			Warn("dropping slow event subscriber")
		b.dropLocked(sub)
		return
	}
	sub.lagged = true

	// Drop the oldest queued event to make room.
	select {
	case <-sub.ch:
	default:
	}
	select {
	case sub.ch <- ev:
	default:
		b.dropLocked(sub)
	}
}

func (b *Broadcaster) dropLocked(sub *Subscription) {
	if sub.done {
		return
	}
	sub.done = true
	delete(b.subs, sub)
	close(sub.ch)
}

// CloseAll ends every subscription. Called once the terminal event has
// been published or the session is cleaned up; later Subscribe calls
// still receive the replay log.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		b.dropLocked(sub)
	}
}
