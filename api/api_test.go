package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/session"
	"github.com/Domenick1991/tourplanner/internal/view"
	"github.com/Domenick1991/tourplanner/internal/workspace"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	adminSession = &session.Session{ID: "admin-1", Credential: "tok-admin", Role: domain.UserTypeAdmin, Subject: "admin@example.com"}
	userSession  = &session.Session{ID: "user-1", Credential: "tok-user", Role: domain.UserTypeUser, Subject: "asha@example.com"}

	pending42   = domain.Booking{ID: 42, UserID: 7, Destination: "Goa", Rate: 18000, NumberOfPeople: 2, Status: domain.BookingStatusPending}
	confirmed43 = domain.Booking{ID: 43, UserID: 7, Destination: "Ooty", Rate: 15000, NumberOfPeople: 1, Status: domain.BookingStatusConfirmed}
	asha        = domain.User{ID: 7, Email: "asha@example.com", Type: domain.UserTypeUser, FirstName: "Asha", LastName: "Rao", City: "Mysore"}
)

type recordingPush struct {
	disconnected []string
}

func (p *recordingPush) ServeWS(http.ResponseWriter, *http.Request, string) error {
	return errors.New("not supported in tests")
}

func (p *recordingPush) Disconnect(sessionID string) {
	p.disconnected = append(p.disconnected, sessionID)
}

type harness struct {
	router   *gin.Engine
	sessions *MockSessionManager
	bookings *MockBookingUseCase
	users    *MockUserUseCase
	registry *workspace.Registry
	push     *recordingPush
}

func newHarness() *harness {
	gin.SetMode(gin.TestMode)

	h := &harness{
		sessions: &MockSessionManager{},
		bookings: &MockBookingUseCase{},
		users:    &MockUserUseCase{},
		push:     &recordingPush{},
	}
	h.registry = workspace.NewRegistry(changebus.New(), h.bookings, h.users,
		workspace.WithViewOptions(view.WithDispatcher(view.SyncDispatch)))
	h.router = NewRouter(RouterDeps{
		Sessions:       h.sessions,
		Workspaces:     h.registry,
		Bookings:       h.bookings,
		Users:          h.users,
		Push:           h.push,
		Cookie:         CookieConfig{Name: "sid", MaxAge: 3600},
		AllowedOrigins: []string{"http://localhost:4200"},
	})

	h.sessions.On("Lookup", mock.Anything, "user-1").Return(userSession, nil)
	h.sessions.On("Lookup", mock.Anything, "admin-1").Return(adminSession, nil)
	h.bookings.On("ListMyBookings", mock.Anything, userSession).Return([]domain.Booking{pending42, confirmed43}, nil)
	h.bookings.On("ListBookings", mock.Anything, adminSession).Return([]domain.Booking{pending42, confirmed43}, nil)
	h.users.On("Profile", mock.Anything, userSession).Return(&asha, nil)
	h.users.On("ListUsers", mock.Anything, adminSession).Return([]domain.User{asha}, nil)
	h.users.On("ListAdmins", mock.Anything, adminSession).Return([]domain.User{{ID: 1, Email: "admin@example.com", Type: domain.UserTypeAdmin}}, nil)
	h.users.On("AdminProfile", mock.Anything, adminSession).Return(&domain.User{ID: 1, Email: "admin@example.com", Type: domain.UserTypeAdmin, FirstName: "Meera", LastName: "Iyer"}, nil)
	return h
}

func (h *harness) do(method, path string, body any, cookie string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized},
		{"invalid transition", &domain.InvalidTransitionError{From: "COMPLETED", To: "PENDING"}, http.StatusConflict},
		{"remote refused transition", &domain.InvalidTransitionError{From: "PENDING", To: "CONFIRMED", Remote: true}, http.StatusConflict},
		{"write in flight", fmt.Errorf("booking 42: %w", domain.ErrMutationInFlight), http.StatusConflict},
		{"nothing selected", view.ErrNothingSelected, http.StatusNotFound},
		{"not found", &domain.RemoteRejectedError{Operation: "getBooking", Message: "no booking", Classification: "NOT_FOUND"}, http.StatusNotFound},
		{"forbidden", &domain.RemoteRejectedError{Operation: "deleteUser", Classification: "FORBIDDEN"}, http.StatusForbidden},
		{"remote unauthorized", &domain.RemoteRejectedError{Operation: "listBookings", Classification: "UNAUTHORIZED"}, http.StatusUnauthorized},
		{"other rejection", &domain.RemoteRejectedError{Operation: "createBooking", Message: "sold out"}, http.StatusUnprocessableEntity},
		{"transport", &domain.TransportError{Operation: "listBookings", Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"validation", errors.New("destination is required"), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

func TestAuthHandler_login(t *testing.T) {
	h := newHarness()
	h.sessions.On("Login", mock.Anything, domain.UserTypeUser, "asha@example.com", "secret").Return(userSession, nil).Once()

	w := h.do(http.MethodPost, "/api/auth/login", loginRequest{Email: "asha@example.com", Password: "secret"}, "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[sessionResponse](t, w)
	assert.Equal(t, "USER", resp.Role)
	assert.Equal(t, []string{"my-bookings", "profile"}, resp.Views)
	cookie := cookieNamed(w, "sid")
	require.NotNil(t, cookie)
	assert.Equal(t, "user-1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, h.registry.Len())
}

func TestAuthHandler_login_errors(t *testing.T) {
	h := newHarness()
	h.sessions.On("Login", mock.Anything, domain.UserTypeAdmin, "asha@example.com", "secret").
		Return(nil, &domain.RemoteRejectedError{Operation: "adminLogin", Message: "invalid credentials", Classification: "UNAUTHORIZED"}).Once()

	w := h.do(http.MethodPost, "/api/auth/admin/login", loginRequest{Email: "asha@example.com", Password: "secret"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeBody[errorResponse](t, w).Classification)

	w = h.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.sessions.AssertNumberOfCalls(t, "Login", 1)
}

func TestAuth_requireSession(t *testing.T) {
	h := newHarness()
	h.sessions.On("Lookup", mock.Anything, "").Return(nil, domain.ErrUnauthenticated)
	h.sessions.On("Lookup", mock.Anything, "expired").Return(nil, domain.ErrUnauthenticated)

	w := h.do(http.MethodGet, "/api/bookings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, cookieNamed(w, "sid"))

	w = h.do(http.MethodGet, "/api/bookings", nil, "expired")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	cleared := cookieNamed(w, "sid")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)

	w = h.do(http.MethodGet, "/api/admin/bookings", nil, "user-1")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/api/bookings", nil, "admin-1")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandler_me(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/api/auth/me", nil, "admin-1")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[sessionResponse](t, w)
	assert.Equal(t, "ADMIN", resp.Role)
	assert.Equal(t, []string{"bookings", "users", "admins", "booking-editor", "user-editor", "profile"}, resp.Views)
}

func TestAuthHandler_logout(t *testing.T) {
	h := newHarness()
	h.sessions.On("Logout", mock.Anything, "user-1").Return(nil).Once()

	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/bookings", nil, "user-1").Code)
	require.Equal(t, 1, h.registry.Len())

	w := h.do(http.MethodPost, "/api/auth/logout", nil, "user-1")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, h.registry.Len())
	assert.Equal(t, []string{"user-1"}, h.push.disconnected)
	h.sessions.AssertExpectations(t)

	w = h.do(http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthHandler_register(t *testing.T) {
	h := newHarness()
	reg := domain.Registration{Email: "ravi@example.com", Password: "pw", FirstName: "Ravi", LastName: "K"}
	h.users.On("Register", mock.Anything, reg).Return(&domain.User{ID: 3, Email: "ravi@example.com", Type: domain.UserTypeUser, FirstName: "Ravi", LastName: "K"}, nil).Once()
	h.users.On("Register", mock.Anything, domain.Registration{}).Return(nil, errors.New("email is required")).Once()

	w := h.do(http.MethodPost, "/api/auth/register", registerRequest{Email: "ravi@example.com", Password: "pw", FirstName: "Ravi", LastName: "K"}, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "RK", decodeBody[userResponse](t, w).Initials)

	w = h.do(http.MethodPost, "/api/auth/register", registerRequest{}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "email is required", decodeBody[errorResponse](t, w).Error)
}

func TestBookingHandler_catalog(t *testing.T) {
	h := newHarness()
	h.bookings.On("Catalog").Return(domain.DefaultCatalog())

	w := h.do(http.MethodGet, "/api/catalog", nil, "")

	assert.Equal(t, http.StatusOK, w.Code)
	entries := decodeBody[[]catalogEntry](t, w)
	require.Len(t, entries, 4)
	assert.Equal(t, catalogEntry{Destination: "Goa", Rate: 18000}, entries[0])
}

func TestBookingHandler_listMine(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/api/bookings", nil, "user-1")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[bookingListResponse](t, w)
	assert.True(t, resp.Loaded)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "PENDING", resp.Items[0].Status)
}

func TestBookingHandler_cancel(t *testing.T) {
	h := newHarness()
	cancelled := pending42
	cancelled.Status = domain.BookingStatusCancelled
	h.bookings.On("ChangeStatus", mock.Anything, userSession, pending42, domain.BookingStatusCancelled).Return(&cancelled, nil).Once()
	h.bookings.On("ChangeStatus", mock.Anything, userSession, confirmed43, domain.BookingStatusCancelled).
		Return(nil, &domain.InvalidTransitionError{From: domain.BookingStatusConfirmed, To: domain.BookingStatusCancelled, Reason: "only pending bookings can be cancelled"}).Once()

	w := h.do(http.MethodPost, "/api/bookings/42/cancel", nil, "user-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CANCELLED", decodeBody[bookingResponse](t, w).Status)

	list := decodeBody[bookingListResponse](t, h.do(http.MethodGet, "/api/bookings", nil, "user-1"))
	assert.Equal(t, "CANCELLED", list.Items[0].Status)

	w = h.do(http.MethodPost, "/api/bookings/43/cancel", nil, "user-1")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/api/bookings/99/cancel", nil, "user-1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodPost, "/api/bookings/abc/cancel", nil, "user-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	h.bookings.AssertNumberOfCalls(t, "ChangeStatus", 2)
}

func TestBookingHandler_myAllowedStatuses(t *testing.T) {
	h := newHarness()
	h.bookings.On("AllowedStatuses", domain.UserTypeUser, domain.BookingStatusPending).
		Return([]domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusCancelled})

	w := h.do(http.MethodGet, "/api/bookings/42/statuses", nil, "user-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"PENDING", "CANCELLED"}, decodeBody[[]string](t, w))
}

func TestBookingHandler_create(t *testing.T) {
	h := newHarness()
	date := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	draft := domain.BookingDraft{Destination: "Goa", BookingDate: date, NumberOfPeople: 2}
	h.bookings.On("CreateBooking", mock.Anything, userSession, draft).
		Return(&domain.Booking{ID: 50, UserID: 7, Destination: "Goa", Rate: 18000, BookingDate: date, NumberOfPeople: 2, Status: domain.BookingStatusPending}, nil).Once()

	w := h.do(http.MethodPost, "/api/bookings", createBookingRequest{Destination: "Goa", BookingDate: "2026-12-01", NumberOfPeople: 2}, "user-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody[bookingResponse](t, w)
	assert.Equal(t, int64(50), resp.ID)
	assert.Equal(t, "2026-12-01", resp.BookingDate)

	w = h.do(http.MethodPost, "/api/bookings", createBookingRequest{Destination: "Goa", BookingDate: "01/12/2026", NumberOfPeople: 2}, "user-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.bookings.AssertNumberOfCalls(t, "CreateBooking", 1)
}

func TestBookingHandler_adminChangeStatus(t *testing.T) {
	h := newHarness()
	confirmed := pending42
	confirmed.Status = domain.BookingStatusConfirmed
	h.bookings.On("GetBooking", mock.Anything, adminSession, int64(42)).Return(&pending42, nil).Once()
	h.bookings.On("ChangeStatus", mock.Anything, adminSession, pending42, domain.BookingStatusConfirmed).Return(&confirmed, nil).Once()

	w := h.do(http.MethodPut, "/api/admin/bookings/42/status", changeStatusRequest{Status: "confirmed"}, "admin-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CONFIRMED", decodeBody[bookingResponse](t, w).Status)
	h.bookings.AssertExpectations(t)
}

func TestBookingHandler_search(t *testing.T) {
	h := newHarness()
	h.bookings.On("GetBooking", mock.Anything, adminSession, int64(42)).Return(&pending42, nil).Once()
	h.bookings.On("GetBooking", mock.Anything, adminSession, int64(404)).
		Return(nil, &domain.RemoteRejectedError{Operation: "getBooking", Message: "booking not found", Classification: "NOT_FOUND"}).Once()
	h.bookings.On("AllowedStatuses", domain.UserTypeAdmin, domain.BookingStatusPending).
		Return([]domain.BookingStatus{domain.BookingStatusPending, domain.BookingStatusConfirmed, domain.BookingStatusCancelled})

	w := h.do(http.MethodGet, "/api/admin/bookings/42", nil, "admin-1")
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[bookingDetailResponse](t, w)
	assert.Equal(t, int64(42), resp.Booking.ID)
	assert.Equal(t, []string{"PENDING", "CONFIRMED", "CANCELLED"}, resp.AllowedStatuses)

	w = h.do(http.MethodGet, "/api/admin/bookings/404", nil, "admin-1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_profile(t *testing.T) {
	h := newHarness()
	updated := asha
	updated.City, updated.Phone = "Goa", "555"
	h.users.On("UpdateProfile", mock.Anything, userSession, "asha@example.com", domain.ContactUpdate{City: "Goa", Phone: "555"}).Return(&updated, nil).Once()

	w := h.do(http.MethodGet, "/api/profile", nil, "user-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AR", decodeBody[userResponse](t, w).Initials)

	w = h.do(http.MethodPut, "/api/profile", contactRequest{City: "Goa", Phone: "555"}, "user-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Goa", decodeBody[userResponse](t, w).City)
}

func TestUserHandler_adminProfile(t *testing.T) {
	h := newHarness()

	w := h.do(http.MethodGet, "/api/admin/profile", nil, "admin-1")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[userResponse](t, w)
	assert.Equal(t, "admin@example.com", resp.Email)
	assert.Equal(t, "MI", resp.Initials)
	h.users.AssertNotCalled(t, "Profile", mock.Anything, adminSession)

	w = h.do(http.MethodGet, "/api/admin/profile", nil, "user-1")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_deleteProfile(t *testing.T) {
	h := newHarness()
	h.users.On("DeleteSelf", mock.Anything, userSession, "asha@example.com").Return("User deleted successfully", nil).Once()
	h.sessions.On("Logout", mock.Anything, "user-1").Return(nil).Once()

	w := h.do(http.MethodDelete, "/api/profile", nil, "user-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User deleted successfully", decodeBody[messageResponse](t, w).Message)
	assert.Equal(t, 0, h.registry.Len())
	assert.Equal(t, []string{"user-1"}, h.push.disconnected)
	cleared := cookieNamed(w, "sid")
	require.NotNil(t, cleared)
	assert.Negative(t, cleared.MaxAge)
}

func TestUserHandler_adminUsers(t *testing.T) {
	h := newHarness()
	update := domain.ProfileUpdate{Email: "asha@example.com", FirstName: "Asha", LastName: "Rao", City: "Ooty"}
	saved := asha
	saved.City = "Ooty"
	h.users.On("GetUser", mock.Anything, adminSession, int64(7)).Return(&asha, nil).Once()
	h.users.On("UpdateUser", mock.Anything, adminSession, int64(7), update).Return(&saved, nil).Once()
	h.users.On("DeleteUser", mock.Anything, adminSession, int64(7)).Return("User deleted successfully", nil).Once()

	w := h.do(http.MethodGet, "/api/admin/users", nil, "admin-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[userListResponse](t, w).Items, 1)

	w = h.do(http.MethodGet, "/api/admin/admins", nil, "admin-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ADMIN", decodeBody[userListResponse](t, w).Items[0].Type)

	w = h.do(http.MethodPut, "/api/admin/users/7", profileRequest{Email: "asha@example.com", FirstName: "Asha", LastName: "Rao", City: "Ooty"}, "admin-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ooty", decodeBody[userResponse](t, w).City)

	w = h.do(http.MethodDelete, "/api/admin/users/7", nil, "admin-1")
	assert.Equal(t, http.StatusOK, w.Code)

	h.users.AssertExpectations(t)
}

func TestCORS(t *testing.T) {
	h := newHarness()

	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
