// Package view holds the server-side state of what a signed-in browser is
// looking at. Each view fetches through a service on mount, re-fetches
// whenever a channel it displays is notified, and stops listening on unmount.
package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/Domenick1991/tourplanner/internal/domain"
)

// Dispatcher runs a re-fetch triggered by a change notification. The default
// starts a goroutine so one slow view never holds up the others.
type Dispatcher func(fn func())

func goDispatch(fn func()) { go fn() }

// SyncDispatch runs re-fetches inline. Tests use it to observe refreshed state
// as soon as Publish returns.
func SyncDispatch(fn func()) { fn() }

type options struct {
	dispatch Dispatcher
	onUpdate func(name string)
}

type Option func(*options)

func WithDispatcher(d Dispatcher) Option {
	return func(o *options) {
		if d != nil {
			o.dispatch = d
		}
	}
}

// WithUpdateHook is called with the view name every time a view applies new
// state or records a new error.
func WithUpdateHook(fn func(name string)) Option {
	return func(o *options) {
		o.onUpdate = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{dispatch: goDispatch}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) updated(name string) {
	if o.onUpdate != nil {
		o.onUpdate(name)
	}
}

// sequence tags fetches so that a slow response never overwrites a newer one.
// It is guarded by the owning view's mutex.
type sequence struct {
	issued  uint64
	applied uint64
}

func (s *sequence) next() uint64 {
	s.issued++
	return s.issued
}

// accept reports whether the response tagged seq is newer than anything
// applied so far, and marks it applied if so.
func (s *sequence) accept(seq uint64) bool {
	if seq <= s.applied {
		return false
	}
	s.applied = seq
	return true
}

// inflight rejects a second write to the same resource while one is pending.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (g *inflight) acquire(kind string, id any) (func(), error) {
	key := fmt.Sprintf("%s:%v", kind, id)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = make(map[string]struct{})
	}
	if _, busy := g.keys[key]; busy {
		return nil, fmt.Errorf("%s %v: %w", kind, id, domain.ErrMutationInFlight)
	}
	g.keys[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.keys, key)
		g.mu.Unlock()
	}, nil
}

// detached returns a context for background re-fetches that outlives the
// mount request but is cancelled on unmount.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(ctx))
}
