package view

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/gateway"
	"github.com/Domenick1991/tourplanner/internal/session"
)

// fakeRemote is an in-memory stand-in for the remote service. It keeps only
// what the view tests look at.
type fakeRemote struct {
	mu       sync.Mutex
	bookings map[int64]domain.Booking
	users    map[int64]domain.User
	calls    map[string]int

	// beforeGet, when set, runs before GetBooking answers.
	beforeGet func(id int64)
	// beforeUpdate, when set, runs before UpdateBookingStatus answers.
	beforeUpdate func(id int64)
	failList     error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		bookings: make(map[int64]domain.Booking),
		users:    make(map[int64]domain.User),
		calls:    make(map[string]int),
	}
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

// authorized refuses a session without a usable credential the way the real
// client does: before anything is sent or counted.
func (f *fakeRemote) authorized(op string, s *session.Session) error {
	if _, ok := s.BearerToken(); !ok {
		return domain.ErrUnauthenticated
	}
	f.record(op)
	return nil
}

func (f *fakeRemote) userByEmail(email string) (domain.User, bool) {
	for _, u := range f.users {
		if u.Email == email {
			return u, true
		}
	}
	return domain.User{}, false
}

func notFound(op string) error {
	return &domain.RemoteRejectedError{Operation: op, Message: "not found", Classification: "NOT_FOUND"}
}

func (f *fakeRemote) LoginUser(context.Context, string, string) (string, error)  { return "tok", nil }
func (f *fakeRemote) LoginAdmin(context.Context, string, string) (string, error) { return "tok", nil }

func (f *fakeRemote) RegisterUser(_ context.Context, reg domain.Registration) (*domain.User, error) {
	f.record("registerUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	u := domain.User{ID: int64(len(f.users) + 100), Email: reg.Email, Type: domain.UserTypeUser}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeRemote) CreateBooking(_ context.Context, s *session.Session, draft domain.BookingDraft) (*domain.Booking, error) {
	f.record("createBooking")
	f.mu.Lock()
	defer f.mu.Unlock()
	owner, _ := f.userByEmail(s.Subject)
	b := domain.Booking{
		ID:             int64(len(f.bookings) + 1000),
		UserID:         owner.ID,
		Destination:    draft.Destination,
		Rate:           draft.Rate,
		BookingDate:    draft.BookingDate,
		NumberOfPeople: draft.NumberOfPeople,
		Status:         domain.BookingStatusPending,
	}
	f.bookings[b.ID] = b
	return &b, nil
}

func (f *fakeRemote) GetBooking(_ context.Context, s *session.Session, id int64) (*domain.Booking, error) {
	if err := f.authorized("getBookingById", s); err != nil {
		return nil, err
	}
	if f.beforeGet != nil {
		f.beforeGet(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, notFound("getBookingById")
	}
	return &b, nil
}

func (f *fakeRemote) ListBookings(_ context.Context, s *session.Session) ([]domain.Booking, error) {
	if err := f.authorized("getAllBookings", s); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	return f.sortedBookings(func(domain.Booking) bool { return true }), nil
}

func (f *fakeRemote) ListMyBookings(_ context.Context, s *session.Session) ([]domain.Booking, error) {
	if err := f.authorized("getAllBookingForAUser", s); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	owner, _ := f.userByEmail(s.Subject)
	return f.sortedBookings(func(b domain.Booking) bool { return b.UserID == owner.ID }), nil
}

func (f *fakeRemote) sortedBookings(keep func(domain.Booking) bool) []domain.Booking {
	out := []domain.Booking{}
	for _, b := range f.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRemote) UpdateBookingStatus(_ context.Context, _ *session.Session, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	f.record("updateUserBooking")
	if f.beforeUpdate != nil {
		f.beforeUpdate(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, notFound("updateUserBooking")
	}
	b.Status = status
	f.bookings[id] = b
	return &b, nil
}

func (f *fakeRemote) CurrentProfile(_ context.Context, s *session.Session) (*domain.User, error) {
	if err := f.authorized("getCurrentUserProfile", s); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.userByEmail(s.Subject)
	if !ok {
		return nil, notFound("getCurrentUserProfile")
	}
	return &u, nil
}

func (f *fakeRemote) CurrentAdminProfile(_ context.Context, s *session.Session) (*domain.User, error) {
	if err := f.authorized("getCurrentAdminProfile", s); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.userByEmail(s.Subject)
	if !ok || u.Type != domain.UserTypeAdmin {
		return nil, notFound("getCurrentAdminProfile")
	}
	return &u, nil
}

func (f *fakeRemote) UpdateCurrentProfile(_ context.Context, _ *session.Session, email string, update domain.ContactUpdate) (*domain.User, error) {
	f.record("updateCurrentUserProfile")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.userByEmail(email)
	if !ok {
		return nil, notFound("updateCurrentUserProfile")
	}
	u.City, u.Phone = update.City, update.Phone
	f.users[u.ID] = u
	return &domain.User{ID: u.ID, City: u.City, Phone: u.Phone}, nil
}

func (f *fakeRemote) DeleteCurrentUser(_ context.Context, _ *session.Session, email string) (string, error) {
	f.record("deleteUserByEmail")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.userByEmail(email)
	if !ok {
		return "", notFound("deleteUserByEmail")
	}
	f.deleteLocked(u.ID)
	return "deleted", nil
}

func (f *fakeRemote) GetUser(_ context.Context, s *session.Session, id int64) (*domain.User, error) {
	if err := f.authorized("getUserById", s); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, notFound("getUserById")
	}
	return &u, nil
}

func (f *fakeRemote) ListUsers(_ context.Context, s *session.Session) ([]domain.User, error) {
	if err := f.authorized("getAllUser", s); err != nil {
		return nil, err
	}
	return f.usersOfType(domain.UserTypeUser), nil
}

func (f *fakeRemote) ListAdmins(_ context.Context, s *session.Session) ([]domain.User, error) {
	if err := f.authorized("getAllAdmin", s); err != nil {
		return nil, err
	}
	return f.usersOfType(domain.UserTypeAdmin), nil
}

func (f *fakeRemote) usersOfType(t domain.UserType) []domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.User{}
	for _, u := range f.users {
		if u.Type == t {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeRemote) UpdateUser(_ context.Context, _ *session.Session, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	f.record("updateUserById")
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, notFound("updateUserById")
	}
	u.Email, u.FirstName, u.LastName = update.Email, update.FirstName, update.LastName
	u.NationalID, u.City, u.Phone = update.NationalID, update.City, update.Phone
	f.users[id] = u
	return &domain.User{Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, City: u.City}, nil
}

func (f *fakeRemote) DeleteUser(_ context.Context, _ *session.Session, id int64) (string, error) {
	f.record("deleteUserById")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return "", notFound("deleteUserById")
	}
	f.deleteLocked(id)
	return fmt.Sprintf("user %d deleted", id), nil
}

// deleteLocked removes a user and cascades to their bookings.
func (f *fakeRemote) deleteLocked(id int64) {
	delete(f.users, id)
	for bid, b := range f.bookings {
		if b.UserID == id {
			delete(f.bookings, bid)
		}
	}
}

var _ gateway.Gateway = (*fakeRemote)(nil)
