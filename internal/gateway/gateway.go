// Package gateway is the typed boundary to the remote tour-planner service.
// Every authenticated operation takes the caller's session explicitly and
// refuses to run without a usable credential.
package gateway

import (
	"context"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/session"
)

type AuthGateway interface {
	LoginUser(ctx context.Context, email, password string) (string, error)
	LoginAdmin(ctx context.Context, email, password string) (string, error)
	RegisterUser(ctx context.Context, reg domain.Registration) (*domain.User, error)
}

type BookingGateway interface {
	CreateBooking(ctx context.Context, s *session.Session, draft domain.BookingDraft) (*domain.Booking, error)
	GetBooking(ctx context.Context, s *session.Session, id int64) (*domain.Booking, error)
	ListBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error)
	ListMyBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, s *session.Session, id int64, status domain.BookingStatus) (*domain.Booking, error)
}

type UserGateway interface {
	CurrentProfile(ctx context.Context, s *session.Session) (*domain.User, error)
	CurrentAdminProfile(ctx context.Context, s *session.Session) (*domain.User, error)
	UpdateCurrentProfile(ctx context.Context, s *session.Session, email string, update domain.ContactUpdate) (*domain.User, error)
	DeleteCurrentUser(ctx context.Context, s *session.Session, email string) (string, error)
	GetUser(ctx context.Context, s *session.Session, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, s *session.Session) ([]domain.User, error)
	ListAdmins(ctx context.Context, s *session.Session) ([]domain.User, error)
	UpdateUser(ctx context.Context, s *session.Session, id int64, update domain.ProfileUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, s *session.Session, id int64) (string, error)
}

type Gateway interface {
	AuthGateway
	BookingGateway
	UserGateway
}
