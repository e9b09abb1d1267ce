package view

import (
	"context"
	"errors"
	"sync"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
)

// ErrNothingSelected is returned by writes on a detail view that shows nothing.
var ErrNothingSelected = errors.New("nothing selected")

type Loader[K comparable, T any] func(ctx context.Context, key K) (*T, error)

// Detail shows the single resource identified by a key: a search result or
// the caller's own profile. A notification re-loads the key most recently
// asked for, which is the displayed key unless a newer load is still in
// flight. A NOT_FOUND answer clears the display; other failures leave it as
// it was.
type Detail[K comparable, T any] struct {
	name     string
	bus      changebus.Subscriber
	channels []changebus.Channel
	load     Loader[K, T]
	opts     options

	mu       sync.Mutex
	seq      sequence
	key      K
	selected bool
	want     K
	wanted   bool
	item     *T
	err      error
	subs     []*changebus.Subscription
	cancel   context.CancelFunc
}

func NewDetail[K comparable, T any](name string, bus changebus.Subscriber, load Loader[K, T], channels []changebus.Channel, opts ...Option) *Detail[K, T] {
	return &Detail[K, T]{
		name:     name,
		bus:      bus,
		channels: channels,
		load:     load,
		opts:     buildOptions(opts),
	}
}

func (d *Detail[K, T]) Name() string {
	return d.name
}

// Mount subscribes and, when a key is already selected, loads it.
func (d *Detail[K, T]) Mount(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return nil
	}
	bg, cancel := detached(ctx)
	d.cancel = cancel
	// subs and cancel change together so Unmount always sees both.
	for _, ch := range d.channels {
		d.subs = append(d.subs, d.bus.Subscribe(ch, d.onNotify(bg)))
	}
	d.mu.Unlock()

	return d.Reload(ctx)
}

func (d *Detail[K, T]) onNotify(ctx context.Context) changebus.Handler {
	return func() {
		d.opts.dispatch(func() {
			if ctx.Err() != nil {
				return
			}
			_ = d.Reload(ctx)
		})
	}
}

// Load fetches key and displays it, unless a newer load or write has been
// applied in the meantime. The fetched value is returned either way.
func (d *Detail[K, T]) Load(ctx context.Context, key K) (*T, error) {
	d.mu.Lock()
	seq := d.seq.next()
	d.want, d.wanted = key, true
	d.mu.Unlock()

	item, err := d.load(ctx, key)

	d.mu.Lock()
	if !d.seq.accept(seq) {
		d.mu.Unlock()
		return item, err
	}
	switch {
	case err == nil:
		d.key, d.selected, d.item, d.err = key, true, item, nil
	case isNotFound(err):
		var zero K
		d.key, d.selected, d.item, d.err = zero, false, nil, err
		if seq == d.seq.issued {
			d.want, d.wanted = zero, false
		}
	default:
		d.err = err
	}
	d.mu.Unlock()

	d.opts.updated(d.name)
	return item, err
}

// Reload re-fetches the key most recently asked for. It does nothing when
// nothing is selected or pending.
func (d *Detail[K, T]) Reload(ctx context.Context) error {
	d.mu.Lock()
	key, wanted := d.want, d.wanted
	d.mu.Unlock()
	if !wanted {
		return nil
	}
	_, err := d.Load(ctx, key)
	return err
}

// Current returns a copy of the displayed resource.
func (d *Detail[K, T]) Current() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.item == nil {
		var zero T
		return zero, false
	}
	return *d.item, true
}

func (d *Detail[K, T]) Key() (K, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.key, d.selected
}

func (d *Detail[K, T]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// selectKey marks key as displayed without fetching it, for views that know
// what they show before they are mounted.
func (d *Detail[K, T]) selectKey(key K) {
	d.mu.Lock()
	d.key, d.selected = key, true
	d.want, d.wanted = key, true
	d.mu.Unlock()
}

// show replaces the displayed resource with a server-confirmed value.
func (d *Detail[K, T]) show(key K, item *T) {
	d.mu.Lock()
	d.seq.accept(d.seq.next())
	d.key, d.selected, d.item, d.err = key, true, item, nil
	d.want, d.wanted = key, true
	d.mu.Unlock()
	d.opts.updated(d.name)
}

func (d *Detail[K, T]) clear() {
	d.mu.Lock()
	d.seq.accept(d.seq.next())
	var zero K
	d.key, d.selected, d.item, d.err = zero, false, nil, nil
	d.want, d.wanted = zero, false
	d.mu.Unlock()
	d.opts.updated(d.name)
}

func (d *Detail[K, T]) fail(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
	d.opts.updated(d.name)
}

func (d *Detail[K, T]) Unmount() {
	d.mu.Lock()
	subs, cancel := d.subs, d.cancel
	d.subs, d.cancel = nil, nil
	d.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
}

func isNotFound(err error) bool {
	var rejected *domain.RemoteRejectedError
	return errors.As(err, &rejected) && rejected.NotFound()
}
