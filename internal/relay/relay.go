// Package relay extends the change bus across processes. Local publishes are
// delivered locally first, then exported; events arriving from other
// instances are delivered locally only, so nothing loops.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/google/uuid"
)

type Event struct {
	Origin  string            `json:"origin"`
	Channel changebus.Channel `json:"channel"`
	At      time.Time         `json:"at"`
}

// Transport moves events between instances.
type Transport interface {
	Send(ctx context.Context, ev Event) error
	// Receive blocks, handing every inbound event to handle, until ctx is
	// done or the transport fails.
	Receive(ctx context.Context, handle func(Event)) error
	Close() error
}

type Relay struct {
	local     *changebus.Bus
	transport Transport
	origin    string
	outbox    chan Event
}

type Option func(*Relay)

// WithOutboxSize bounds how many exports may wait for the transport. When the
// outbox is full further exports are dropped and logged.
func WithOutboxSize(n int) Option {
	return func(r *Relay) {
		r.outbox = make(chan Event, n)
	}
}

func New(local *changebus.Bus, transport Transport, opts ...Option) *Relay {
	r := &Relay{
		local:     local,
		transport: transport,
		origin:    uuid.NewString(),
		outbox:    make(chan Event, 256),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Relay) Origin() string {
	return r.origin
}

// Publish delivers ch on the local bus and queues it for export.
func (r *Relay) Publish(ch changebus.Channel) {
	r.local.Publish(ch)

	ev := Event{Origin: r.origin, Channel: ch, At: time.Now().UTC()}
	select {
	case r.outbox <- ev:
	default:
		log.Printf("[relay] outbox full, %s notification not exported", ch)
	}
}

// Run exports queued events and applies inbound ones until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		errs <- r.transport.Receive(ctx, r.apply)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("relay receive: %w", err)
		case ev := <-r.outbox:
			if err := r.transport.Send(ctx, ev); err != nil {
				log.Printf("[relay] export of %s failed: %v", ev.Channel, err)
			}
		}
	}
}

func (r *Relay) apply(ev Event) {
	if ev.Origin == r.origin {
		return
	}
	r.local.Publish(ev.Channel)
}

func (r *Relay) Close() error {
	return r.transport.Close()
}

var _ changebus.Publisher = (*Relay)(nil)
