// Package changebus carries "resource changed" signals between views that do
// not share state. A notification has no payload: subscribers re-fetch.
package changebus

import (
	"log"
	"sync"
)

type Channel string

const (
	Bookings Channel = "bookings"
	Users    Channel = "users"
)

// Channels lists every channel created by New.
func Channels() []Channel {
	return []Channel{Bookings, Users}
}

type Handler func()

type Publisher interface {
	Publish(ch Channel)
}

type Subscriber interface {
	Subscribe(ch Channel, handler Handler) *Subscription
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus is a process-wide set of channels. Publish delivers synchronously: every
// handler registered on the channel has run by the time it returns. A publish
// issued from inside a handler is queued and delivered after the current
// fan-out completes, so fan-outs never interleave. Each fan-out goes to the
// handlers registered when it starts; unsubscribing during it only affects
// later publishes.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	subs     map[Channel][]*subscriber
	queue    []Channel
	draining bool
}

func New() *Bus {
	b := &Bus{subs: make(map[Channel][]*subscriber)}
	for _, ch := range Channels() {
		b.subs[ch] = nil
	}
	return b
}

func (b *Bus) Publish(ch Channel) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; !ok {
		b.mu.Unlock()
		log.Printf("[changebus] publish on unknown channel %q ignored", ch)
		return
	}
	b.queue = append(b.queue, ch)
	if b.draining {
		b.mu.Unlock()
		return
	}
	b.draining = true
	for len(b.queue) > 0 {
		next := b.queue[0]
		b.queue = b.queue[1:]
		snapshot := make([]*subscriber, len(b.subs[next]))
		copy(snapshot, b.subs[next])
		b.mu.Unlock()

		for _, s := range snapshot {
			deliver(next, s.handler)
		}

		b.mu.Lock()
	}
	b.draining = false
	b.mu.Unlock()
}

func deliver(ch Channel, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[changebus] handler on %s panicked: %v", ch, r)
		}
	}()
	handler()
}

// Subscribe registers handler for every later publish on ch. Publishes made
// before the call are not replayed.
func (b *Bus) Subscribe(ch Channel, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[ch]; !ok {
		log.Printf("[changebus] subscribe on unknown channel %q", ch)
		return &Subscription{}
	}
	b.nextID++
	s := &subscriber{id: b.nextID, handler: handler}
	b.subs[ch] = append(b.subs[ch], s)
	return &Subscription{bus: b, ch: ch, sub: s}
}

func (b *Bus) remove(ch Channel, s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.subs[ch]
	kept := make([]*subscriber, 0, len(current))
	for _, other := range current {
		if other.id != s.id {
			kept = append(kept, other)
		}
	}
	b.subs[ch] = kept
}

// SubscriberCount is mostly useful for tests and diagnostics.
func (b *Bus) SubscriberCount(ch Channel) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[ch])
}

type Subscription struct {
	bus  *Bus
	ch   Channel
	sub  *subscriber
	once sync.Once
}

func (s *Subscription) Channel() Channel {
	return s.ch
}

// Unsubscribe stops delivery of later publishes. A fan-out already under way
// still reaches the handler. Calling it again, or from inside a handler, is
// safe.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	s.once.Do(func() {
		s.bus.remove(s.ch, s.sub)
	})
}

var (
	_ Publisher  = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)
