// Package workspace keeps the mounted views of every signed-in browser.
package workspace

import (
	"context"
	"log"
	"sync"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/service/booking"
	"github.com/Domenick1991/tourplanner/internal/service/users"
	"github.com/Domenick1991/tourplanner/internal/session"
	"github.com/Domenick1991/tourplanner/internal/view"
)

// Notifier is told whenever a view of a session has new state.
type Notifier interface {
	Notify(sessionID, view string)
}

type mountable interface {
	Name() string
	Mount(ctx context.Context) error
	Unmount()
}

// Workspace holds the views one role sees. Fields of the other role are nil;
// Profile is set for both.
type Workspace struct {
	Session *session.Session

	AllBookings   *view.Collection[domain.Booking]
	Users         *view.Collection[domain.User]
	Admins        *view.Collection[domain.User]
	BookingEditor *view.BookingEditor
	UserEditor    *view.UserEditor

	MyBookings *view.MyBookings
	Profile    *view.Profile

	views []mountable
}

func (w *Workspace) mount(ctx context.Context) {
	for _, v := range w.views {
		if err := v.Mount(ctx); err != nil {
			log.Printf("[workspace] initial load of %s failed for session %s: %v", v.Name(), w.Session.ID, err)
		}
	}
}

func (w *Workspace) unmount() {
	for _, v := range w.views {
		v.Unmount()
	}
}

// Views lists the names of the mounted views.
func (w *Workspace) Views() []string {
	names := make([]string, 0, len(w.views))
	for _, v := range w.views {
		names = append(names, v.Name())
	}
	return names
}

type Registry struct {
	bus      changebus.Subscriber
	bookings booking.BookingUseCase
	users    users.UserUseCase
	notifier Notifier
	viewOpts []view.Option

	mu     sync.Mutex
	spaces map[string]*Workspace
}

type RegistryOption func(*Registry)

func WithNotifier(n Notifier) RegistryOption {
	return func(r *Registry) {
		r.notifier = n
	}
}

// WithViewOptions applies opts to every view the registry mounts.
func WithViewOptions(opts ...view.Option) RegistryOption {
	return func(r *Registry) {
		r.viewOpts = append(r.viewOpts, opts...)
	}
}

func NewRegistry(bus changebus.Subscriber, bookings booking.BookingUseCase, users users.UserUseCase, opts ...RegistryOption) *Registry {
	r := &Registry{
		bus:      bus,
		bookings: bookings,
		users:    users,
		spaces:   make(map[string]*Workspace),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the workspace of s, mounting it on first use. A workspace
// opened under a credential that has since changed is rebuilt.
func (r *Registry) Open(ctx context.Context, s *session.Session) (*Workspace, error) {
	if _, ok := s.BearerToken(); !ok {
		return nil, domain.ErrUnauthenticated
	}

	r.mu.Lock()
	existing, ok := r.spaces[s.ID]
	r.mu.Unlock()
	if ok && existing.Session.Credential == s.Credential {
		return existing, nil
	}

	w := r.build(s)
	w.mount(ctx)

	r.mu.Lock()
	current, ok := r.spaces[s.ID]
	if ok && current.Session.Credential == s.Credential {
		r.mu.Unlock()
		w.unmount()
		return current, nil
	}
	r.spaces[s.ID] = w
	r.mu.Unlock()

	if ok {
		current.unmount()
	}
	log.Printf("[workspace] opened %s workspace for session %s", s.Role, s.ID)
	return w, nil
}

func (r *Registry) build(s *session.Session) *Workspace {
	opts := append([]view.Option(nil), r.viewOpts...)
	if r.notifier != nil {
		id := s.ID
		opts = append(opts, view.WithUpdateHook(func(name string) {
			r.notifier.Notify(id, name)
		}))
	}

	w := &Workspace{Session: s}
	if s.IsAdmin() {
		w.AllBookings = view.NewAllBookings(r.bus, r.bookings, s, opts...)
		w.Users = view.NewAllUsers(r.bus, r.users, s, opts...)
		w.Admins = view.NewAdmins(r.bus, r.users, s, opts...)
		w.BookingEditor = view.NewBookingEditor(r.bus, r.bookings, s, opts...)
		w.UserEditor = view.NewUserEditor(r.bus, r.users, s, opts...)
		w.Profile = view.NewProfile(r.bus, r.users, s, opts...)
		w.views = []mountable{w.AllBookings, w.Users, w.Admins, w.BookingEditor, w.UserEditor, w.Profile}
		return w
	}
	w.MyBookings = view.NewMyBookings(r.bus, r.bookings, s, opts...)
	w.Profile = view.NewProfile(r.bus, r.users, s, opts...)
	w.views = []mountable{w.MyBookings, w.Profile}
	return w
}

func (r *Registry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.spaces[id]
	return w, ok
}

// Close unmounts the workspace of session id. Unknown ids are ignored.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	w, ok := r.spaces[id]
	delete(r.spaces, id)
	r.mu.Unlock()

	if ok {
		w.unmount()
		log.Printf("[workspace] closed workspace for session %s", id)
	}
}

// CloseAll unmounts every workspace.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	spaces := r.spaces
	r.spaces = make(map[string]*Workspace)
	r.mu.Unlock()

	for _, w := range spaces {
		w.unmount()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}
