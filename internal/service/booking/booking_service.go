package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/gateway"
	"github.com/Domenick1991/tourplanner/internal/session"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, s *session.Session, draft domain.BookingDraft) (*domain.Booking, error)
	GetBooking(ctx context.Context, s *session.Session, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error)
	ListMyBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error)
	ChangeStatus(ctx context.Context, s *session.Session, current domain.Booking, requested domain.BookingStatus) (*domain.Booking, error)
	AllowedStatuses(role domain.UserType, current domain.BookingStatus) []domain.BookingStatus
	Catalog() domain.Catalog
}

type BookingService struct {
	gateway   gateway.BookingGateway
	engine    *domain.Lifecycle
	publisher changebus.Publisher
	catalog   domain.Catalog
	now       func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithCatalog(catalog domain.Catalog) BookingServiceOption {
	return func(s *BookingService) {
		if len(catalog) > 0 {
			s.catalog = catalog
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	gw gateway.BookingGateway,
	engine *domain.Lifecycle,
	publisher changebus.Publisher,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		gateway:   gw,
		engine:    engine,
		publisher: publisher,
		catalog:   domain.DefaultCatalog(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) Catalog() domain.Catalog {
	return s.catalog
}

// CreateBooking fills the rate from the catalog when the form left it empty,
// validates the draft and publishes on the bookings channel once the remote
// service has accepted it.
func (s *BookingService) CreateBooking(ctx context.Context, sess *session.Session, draft domain.BookingDraft) (*domain.Booking, error) {
	if draft.Rate == 0 {
		if rate, ok := s.catalog.Rate(draft.Destination); ok {
			draft.Rate = rate
		}
	}
	if err := s.catalog.Validate(draft, s.now()); err != nil {
		return nil, err
	}

	created, err := s.gateway.CreateBooking(ctx, sess, draft)
	if err != nil {
		return nil, err
	}
	created.Status = domain.BookingStatusPending

	s.publisher.Publish(changebus.Bookings)
	log.Printf("[booking] %s booked %s for %d", sess.Subject, created.Destination, created.NumberOfPeople)
	return created, nil
}

func (s *BookingService) GetBooking(ctx context.Context, sess *session.Session, id int64) (*domain.Booking, error) {
	if id <= 0 {
		return nil, errors.New("booking id must be positive")
	}
	return s.gateway.GetBooking(ctx, sess, id)
}

func (s *BookingService) ListBookings(ctx context.Context, sess *session.Session) ([]domain.Booking, error) {
	return s.gateway.ListBookings(ctx, sess)
}

func (s *BookingService) ListMyBookings(ctx context.Context, sess *session.Session) ([]domain.Booking, error) {
	return s.gateway.ListMyBookings(ctx, sess)
}

// ChangeStatus authorizes the transition for the caller's role, sends it and
// publishes on the bookings channel. A rejected transition never reaches the
// remote service. The returned booking carries the status the server
// confirmed.
func (s *BookingService) ChangeStatus(ctx context.Context, sess *session.Session, current domain.Booking, requested domain.BookingStatus) (*domain.Booking, error) {
	if _, ok := sess.BearerToken(); !ok {
		return nil, domain.ErrUnauthenticated
	}

	target, err := s.engine.Authorize(sess.Role, current.Status, requested)
	if err != nil {
		log.Printf("[booking] rejected status change of booking %d: %v", current.ID, err)
		return nil, err
	}

	updated, err := s.gateway.UpdateBookingStatus(ctx, sess, current.ID, target)
	if err != nil {
		var invalid *domain.InvalidTransitionError
		if errors.As(err, &invalid) && invalid.From == "" {
			invalid.From = domain.NormalizeStatus(string(current.Status))
		}
		return nil, err
	}

	s.publisher.Publish(changebus.Bookings)
	log.Printf("[booking] booking %d moved %s -> %s", current.ID, current.Status, updated.Status)
	return updated, nil
}

// AllowedStatuses lists what the status picker offers for role. Users see the
// current status and, for a pending booking, cancellation.
func (s *BookingService) AllowedStatuses(role domain.UserType, current domain.BookingStatus) []domain.BookingStatus {
	if role == domain.UserTypeAdmin {
		return s.engine.AllowedTargets(current)
	}
	from := domain.NormalizeStatus(string(current))
	out := []domain.BookingStatus{from}
	if _, err := s.engine.Authorize(role, from, domain.BookingStatusCancelled); err == nil {
		out = append(out, domain.BookingStatusCancelled)
	}
	return out
}

var _ BookingUseCase = (*BookingService)(nil)
