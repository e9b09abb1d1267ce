package api

import (
	"context"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/session"
	"github.com/stretchr/testify/mock"
)

// MockSessionManager is a mock implementation of SessionManager
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Login(ctx context.Context, role domain.UserType, email, password string) (*session.Session, error) {
	args := m.Called(ctx, role, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionManager) Lookup(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionManager) Logout(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, s *session.Session, draft domain.BookingDraft) (*domain.Booking, error) {
	args := m.Called(ctx, s, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, s *session.Session, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, s, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListMyBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ChangeStatus(ctx context.Context, s *session.Session, current domain.Booking, requested domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, s, current, requested)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) AllowedStatuses(role domain.UserType, current domain.BookingStatus) []domain.BookingStatus {
	return m.Called(role, current).Get(0).([]domain.BookingStatus)
}

func (m *MockBookingUseCase) Catalog() domain.Catalog {
	return m.Called().Get(0).(domain.Catalog)
}

// MockUserUseCase is a mock implementation of users.UserUseCase
type MockUserUseCase struct {
	mock.Mock
}

func (m *MockUserUseCase) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) Profile(ctx context.Context, s *session.Session) (*domain.User, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) AdminProfile(ctx context.Context, s *session.Session) (*domain.User, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) UpdateProfile(ctx context.Context, s *session.Session, email string, update domain.ContactUpdate) (*domain.User, error) {
	args := m.Called(ctx, s, email, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) DeleteSelf(ctx context.Context, s *session.Session, email string) (string, error) {
	args := m.Called(ctx, s, email)
	return args.String(0), args.Error(1)
}

func (m *MockUserUseCase) GetUser(ctx context.Context, s *session.Session, id int64) (*domain.User, error) {
	args := m.Called(ctx, s, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) ListUsers(ctx context.Context, s *session.Session) ([]domain.User, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUseCase) ListAdmins(ctx context.Context, s *session.Session) ([]domain.User, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserUseCase) UpdateUser(ctx context.Context, s *session.Session, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	args := m.Called(ctx, s, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserUseCase) DeleteUser(ctx context.Context, s *session.Session, id int64) (string, error) {
	args := m.Called(ctx, s, id)
	return args.String(0), args.Error(1)
}
