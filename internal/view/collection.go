package view

import (
	"context"
	"sync"

	"github.com/Domenick1991/tourplanner/internal/changebus"
)

type Fetcher[T any] func(ctx context.Context) ([]T, error)

// Collection is a list view. Every notification on one of its channels
// replaces the list wholesale with a fresh fetch.
type Collection[T any] struct {
	name     string
	bus      changebus.Subscriber
	channels []changebus.Channel
	fetch    Fetcher[T]
	opts     options

	mu     sync.Mutex
	seq    sequence
	items  []T
	err    error
	loaded bool
	subs   []*changebus.Subscription
	cancel context.CancelFunc
}

func NewCollection[T any](name string, bus changebus.Subscriber, fetch Fetcher[T], channels []changebus.Channel, opts ...Option) *Collection[T] {
	return &Collection[T]{
		name:     name,
		bus:      bus,
		channels: channels,
		fetch:    fetch,
		opts:     buildOptions(opts),
	}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Mount subscribes to the view's channels and runs the initial fetch. The
// view stays mounted when that fetch fails; the error is also kept in Err.
// Mounting twice is a no-op.
func (c *Collection[T]) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	bg, cancel := detached(ctx)
	c.cancel = cancel
	// subs and cancel change together so Unmount always sees both.
	for _, ch := range c.channels {
		c.subs = append(c.subs, c.bus.Subscribe(ch, c.onNotify(bg)))
	}
	c.mu.Unlock()

	return c.Refresh(ctx)
}

func (c *Collection[T]) onNotify(ctx context.Context) changebus.Handler {
	return func() {
		c.opts.dispatch(func() {
			if ctx.Err() != nil {
				return
			}
			_ = c.Refresh(ctx)
		})
	}
}

// Refresh fetches the list and applies it unless a newer fetch has already
// been applied. On failure the displayed items are left as they were.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	seq := c.seq.next()
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	if !c.seq.accept(seq) {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.err = err
	} else {
		c.items = items
		c.err = nil
		c.loaded = true
	}
	c.mu.Unlock()

	c.opts.updated(c.name)
	return err
}

// Items returns a copy of the displayed list.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Find(match func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Err is the most recent fetch or write failure, cleared by the next
// successful fetch.
func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Collection[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Mounted reports whether the view is currently subscribed.
func (c *Collection[T]) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancel != nil
}

// replace swaps every item match selects for item. Fetches issued before the
// call are discarded when they complete.
func (c *Collection[T]) replace(match func(T) bool, item T) {
	c.mu.Lock()
	c.seq.accept(c.seq.next())
	for i := range c.items {
		if match(c.items[i]) {
			c.items[i] = item
		}
	}
	c.mu.Unlock()
	c.opts.updated(c.name)
}

func (c *Collection[T]) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.opts.updated(c.name)
}

// Unmount stops listening. Re-fetches already dispatched are abandoned.
func (c *Collection[T]) Unmount() {
	c.mu.Lock()
	subs, cancel := c.subs, c.cancel
	c.subs, c.cancel = nil, nil
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}
