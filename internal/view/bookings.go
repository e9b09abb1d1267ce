package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/service/booking"
	"github.com/Domenick1991/tourplanner/internal/session"
)

// ErrNotDisplayed is returned when a write names a booking the view does not show.
var ErrNotDisplayed = errors.New("not displayed in this view")

// NewAllBookings is the administrator's list of every booking.
func NewAllBookings(bus changebus.Subscriber, bookings booking.BookingUseCase, sess *session.Session, opts ...Option) *Collection[domain.Booking] {
	fetch := func(ctx context.Context) ([]domain.Booking, error) {
		return bookings.ListBookings(ctx, sess)
	}
	return NewCollection("bookings", bus, fetch, []changebus.Channel{changebus.Bookings}, opts...)
}

// MyBookings is a user's own booking list with the booking form and the
// cancel action.
type MyBookings struct {
	*Collection[domain.Booking]
	bookings booking.BookingUseCase
	sess     *session.Session
	writes   inflight
}

func NewMyBookings(bus changebus.Subscriber, bookings booking.BookingUseCase, sess *session.Session, opts ...Option) *MyBookings {
	fetch := func(ctx context.Context) ([]domain.Booking, error) {
		return bookings.ListMyBookings(ctx, sess)
	}
	return &MyBookings{
		Collection: NewCollection("my-bookings", bus, fetch, []changebus.Channel{changebus.Bookings}, opts...),
		bookings:   bookings,
		sess:       sess,
	}
}

func (v *MyBookings) Create(ctx context.Context, draft domain.BookingDraft) (*domain.Booking, error) {
	created, err := v.bookings.CreateBooking(ctx, v.sess, draft)
	if err != nil {
		v.fail(err)
		return nil, err
	}
	return created, nil
}

// AllowedStatuses returns what the status picker offers for a displayed booking.
func (v *MyBookings) AllowedStatuses(id int64) ([]domain.BookingStatus, error) {
	current, ok := v.Find(bookingWithID(id))
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotDisplayed)
	}
	return v.bookings.AllowedStatuses(v.sess.Role, current.Status), nil
}

// Cancel cancels a displayed booking. The list only changes once the server
// has confirmed the new status.
func (v *MyBookings) Cancel(ctx context.Context, id int64) (*domain.Booking, error) {
	current, ok := v.Find(bookingWithID(id))
	if !ok {
		return nil, fmt.Errorf("booking %d: %w", id, ErrNotDisplayed)
	}

	release, err := v.writes.acquire("booking", id)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := v.bookings.ChangeStatus(ctx, v.sess, current, domain.BookingStatusCancelled)
	if err != nil {
		v.fail(err)
		return nil, err
	}
	v.replace(bookingWithID(id), mergeBooking(current, *updated))
	return updated, nil
}

// BookingEditor is the administrator's search-by-id form with the status
// picker.
type BookingEditor struct {
	*Detail[int64, domain.Booking]
	bookings booking.BookingUseCase
	sess     *session.Session
	writes   inflight
}

func NewBookingEditor(bus changebus.Subscriber, bookings booking.BookingUseCase, sess *session.Session, opts ...Option) *BookingEditor {
	load := func(ctx context.Context, id int64) (*domain.Booking, error) {
		return bookings.GetBooking(ctx, sess, id)
	}
	return &BookingEditor{
		Detail:   NewDetail("booking-editor", bus, load, []changebus.Channel{changebus.Bookings}, opts...),
		bookings: bookings,
		sess:     sess,
	}
}

// Search looks a booking up by id. When searches overlap, the last one
// issued wins regardless of which answer arrives first.
func (v *BookingEditor) Search(ctx context.Context, id int64) (*domain.Booking, error) {
	return v.Load(ctx, id)
}

func (v *BookingEditor) AllowedStatuses() []domain.BookingStatus {
	current, ok := v.Current()
	if !ok {
		return nil
	}
	return v.bookings.AllowedStatuses(v.sess.Role, current.Status)
}

// Save requests a status change for the displayed booking.
func (v *BookingEditor) Save(ctx context.Context, status domain.BookingStatus) (*domain.Booking, error) {
	current, ok := v.Current()
	if !ok {
		return nil, ErrNothingSelected
	}

	release, err := v.writes.acquire("booking", current.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := v.bookings.ChangeStatus(ctx, v.sess, current, status)
	if err != nil {
		v.fail(err)
		return nil, err
	}
	merged := mergeBooking(current, *updated)
	if id, selected := v.Key(); selected && id == current.ID {
		v.show(current.ID, &merged)
	}
	return updated, nil
}

func bookingWithID(id int64) func(domain.Booking) bool {
	return func(b domain.Booking) bool { return b.ID == id }
}

// mergeBooking takes the server's answer and falls back to the displayed
// values for fields the mutation did not return.
func mergeBooking(shown, confirmed domain.Booking) domain.Booking {
	out := confirmed
	if out.ID == 0 {
		out.ID = shown.ID
	}
	if out.UserID == 0 {
		out.UserID = shown.UserID
	}
	if out.Destination == "" {
		out.Destination = shown.Destination
	}
	if out.Rate == 0 {
		out.Rate = shown.Rate
	}
	if out.BookingDate.IsZero() {
		out.BookingDate = shown.BookingDate
	}
	if out.NumberOfPeople == 0 {
		out.NumberOfPeople = shown.NumberOfPeople
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = shown.CreatedAt
	}
	return out
}
