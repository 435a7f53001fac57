package internal

import "sync"

// subscriberBuffer bounds how many undelivered envelopes a subscriber
// may accumulate before further envelopes are dropped for it.
const subscriberBuffer = 10

// Envelope is one broadcast unit: a full text line and the remote
// address of the connection that produced it.
type Envelope struct {
	Text   string
	Origin string
}

// Bus is the broadcast channel shared by all connection handlers of
// one hosting session. Every subscriber sees every envelope published
// after its subscription, in publish order. Publishing never blocks;
// a subscriber whose buffer is full misses that envelope.
type Bus struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// Subscription is one subscriber's view of the bus. C is closed when
// the bus shuts down.
type Subscription struct {
	C   <-chan Envelope
	ch  chan Envelope
	bus *Bus
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber. Returns nil if the bus is
// already closed.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	ch := make(chan Envelope, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	b.subs[sub] = struct{}{}
	return sub
}

// Cancel removes the subscription. Safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s)
}

// Publish delivers env to every current subscriber. Returns false if
// the bus is closed.
func (b *Bus) Publish(env Envelope) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	for sub := range b.subs {
		select {
		case sub.ch <- env:
		default:
			// Slow subscriber, drop the envelope for it.
		}
	}
	return true
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		close(sub.ch)
		delete(b.subs, sub)
	}
}
