package gateway

import (
	"context"
	"errors"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/session"
)

const bookingFields = `bookingId userId destination rate bookingDate numberOfPeople createdAt status`

const userFields = `userId email userType createdAt firstName lastName aadharNumber city phoneNumber`

const (
	loginUserMutation = `mutation LoginUser($email: String!, $password: String!) {
  loginUser(email: $email, password: $password) { token error }
}`
	loginAdminMutation = `mutation LoginAdmin($email: String!, $password: String!) {
  loginAdmin(email: $email, password: $password) { token error }
}`
	registerUserMutation = `mutation RegisterUser($userRegisterDTO: UserRegisterDTO!) {
  registerUser(userRegisterDTO: $userRegisterDTO) { email firstName lastName aadharNumber city phoneNumber }
}`
	createBookingMutation = `mutation CreateBooking($bookingDTO: BookingInput!) {
  createBooking(bookingDTO: $bookingDTO) { destination rate bookingDate numberOfPeople }
}`
	getBookingByIDQuery = `query GetBookingById($bookingId: ID!) {
  getBookingById(bookingId: $bookingId) { ` + bookingFields + ` }
}`
	getAllBookingsQuery = `query GetAllBookings {
  getAllBookings { ` + bookingFields + ` }
}`
	getMyBookingsQuery = `query GetAllBookingForAUser {
  getAllBookingForAUser { bookingId destination rate bookingDate numberOfPeople createdAt status }
}`
	updateUserBookingMutation = `mutation UpdateUserBooking($bookingId: ID!, $status: String!) {
  updateUserBooking(bookingId: $bookingId, status: $status) { ` + bookingFields + ` }
}`
	currentProfileQuery = `query GetCurrentUserProfile {
  getCurrentUserProfile { email firstName lastName aadharNumber city phoneNumber }
}`
	currentAdminProfileQuery = `query GetCurrentAdminProfile {
  getCurrentAdminProfile { ` + userFields + ` }
}`
	updateCurrentProfileMutation = `mutation UpdateCurrentUserProfile($email: String!, $input: UpdateCurrentProfileInput!) {
  updateCurrentUserProfile(email: $email, input: $input) { userId firstName lastName aadharNumber city phoneNumber }
}`
	deleteUserByEmailMutation = `mutation DeleteUserByEmail($email: String!) {
  deleteUserByEmail(email: $email)
}`
	getUserByIDQuery = `query GetUserById($userId: ID!) {
  getUserById(userId: $userId) { ` + userFields + ` }
}`
	getAllUserQuery = `query GetAllUser {
  getAllUser { ` + userFields + ` }
}`
	getAllAdminQuery = `query GetAllAdmin {
  getAllAdmin { ` + userFields + ` }
}`
	updateUserByIDMutation = `mutation UpdateUserById($userId: ID!, $userProfileDTO: UserProfileInput!) {
  updateUserById(userId: $userId, userProfileDTO: $userProfileDTO) { email firstName lastName aadharNumber city phoneNumber }
}`
	deleteUserByIDMutation = `mutation DeleteUserById($userId: ID!) {
  deleteUserById(userId: $userId)
}`
)

func (c *Client) LoginUser(ctx context.Context, email, password string) (string, error) {
	return c.login(ctx, "loginUser", loginUserMutation, email, password)
}

func (c *Client) LoginAdmin(ctx context.Context, email, password string) (string, error) {
	return c.login(ctx, "loginAdmin", loginAdminMutation, email, password)
}

// login reports a failed sign-in, which the service returns as an "error"
// field rather than a GraphQL error, as UNAUTHORIZED.
func (c *Client) login(ctx context.Context, operation, query, email, password string) (string, error) {
	var out loginPayload
	if err := c.do(ctx, "", operation, query, map[string]any{"email": email, "password": password}, &out); err != nil {
		return "", err
	}
	if out.Error != nil && *out.Error != "" {
		return "", &domain.RemoteRejectedError{Operation: operation, Message: *out.Error, Classification: "UNAUTHORIZED"}
	}
	if out.Token == nil || *out.Token == "" {
		return "", &domain.RemoteRejectedError{Operation: operation, Message: "no token issued", Classification: "UNAUTHORIZED"}
	}
	return *out.Token, nil
}

func (c *Client) RegisterUser(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	input := registerInput{
		FirstName:    reg.FirstName,
		LastName:     reg.LastName,
		Email:        reg.Email,
		Password:     reg.Password,
		AadharNumber: reg.NationalID,
		PhoneNumber:  reg.Phone,
		City:         reg.City,
	}
	var out userPayload
	if err := c.do(ctx, "", "registerUser", registerUserMutation, map[string]any{"userRegisterDTO": input}, &out); err != nil {
		return nil, err
	}
	user := out.toDomain()
	user.Type = domain.UserTypeUser
	return &user, nil
}

func (c *Client) CreateBooking(ctx context.Context, s *session.Session, draft domain.BookingDraft) (*domain.Booking, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	input := bookingInput{
		Destination:    draft.Destination,
		Rate:           draft.Rate,
		BookingDate:    draft.BookingDate.Format("2006-01-02"),
		NumberOfPeople: draft.NumberOfPeople,
	}
	var out bookingPayload
	if err := c.do(ctx, token, "createBooking", createBookingMutation, map[string]any{"bookingDTO": input}, &out); err != nil {
		return nil, err
	}
	booking := out.toDomain()
	return &booking, nil
}

func (c *Client) GetBooking(ctx context.Context, s *session.Session, id int64) (*domain.Booking, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	var out bookingPayload
	if err := c.do(ctx, token, "getBookingById", getBookingByIDQuery, map[string]any{"bookingId": id}, &out); err != nil {
		return nil, err
	}
	booking := out.toDomain()
	return &booking, nil
}

func (c *Client) ListBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error) {
	return c.listBookings(ctx, s, "getAllBookings", getAllBookingsQuery)
}

func (c *Client) ListMyBookings(ctx context.Context, s *session.Session) ([]domain.Booking, error) {
	return c.listBookings(ctx, s, "getAllBookingForAUser", getMyBookingsQuery)
}

func (c *Client) listBookings(ctx context.Context, s *session.Session, operation, query string) ([]domain.Booking, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	var out []bookingPayload
	if err := c.doList(ctx, token, operation, query, &out); err != nil {
		return nil, err
	}
	return bookingsToDomain(out), nil
}

// UpdateBookingStatus sends the status change. A BAD_REQUEST or
// INVALID_TRANSITION rejection comes back as *domain.InvalidTransitionError
// with Remote set.
func (c *Client) UpdateBookingStatus(ctx context.Context, s *session.Session, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{"bookingId": id, "status": string(status)}
	var out bookingPayload
	if err := c.do(ctx, token, "updateUserBooking", updateUserBookingMutation, vars, &out); err != nil {
		var rejected *domain.RemoteRejectedError
		if errors.As(err, &rejected) && isTransitionRejection(rejected.Classification) {
			return nil, &domain.InvalidTransitionError{To: status, Reason: rejected.Message, Remote: true}
		}
		return nil, err
	}
	booking := out.toDomain()
	return &booking, nil
}

func isTransitionRejection(classification string) bool {
	return classification == "INVALID_TRANSITION" || classification == "BAD_REQUEST"
}

func (c *Client) CurrentProfile(ctx context.Context, s *session.Session) (*domain.User, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	var out userPayload
	if err := c.do(ctx, token, "getCurrentUserProfile", currentProfileQuery, nil, &out); err != nil {
		return nil, err
	}
	user := out.toDomain()
	user.Type = s.Role
	return &user, nil
}

// CurrentAdminProfile reads the signed-in administrator's own record.
func (c *Client) CurrentAdminProfile(ctx context.Context, s *session.Session) (*domain.User, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	var out userPayload
	if err := c.do(ctx, token, "getCurrentAdminProfile", currentAdminProfileQuery, nil, &out); err != nil {
		return nil, err
	}
	user := out.toDomain()
	if user.Type == "" {
		user.Type = domain.UserTypeAdmin
	}
	return &user, nil
}

func (c *Client) UpdateCurrentProfile(ctx context.Context, s *session.Session, email string, update domain.ContactUpdate) (*domain.User, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"email": email,
		"input": contactInput{City: update.City, PhoneNumber: update.Phone},
	}
	var out userPayload
	if err := c.do(ctx, token, "updateCurrentUserProfile", updateCurrentProfileMutation, vars, &out); err != nil {
		return nil, err
	}
	user := out.toDomain()
	user.Email = email
	user.Type = s.Role
	return &user, nil
}

func (c *Client) DeleteCurrentUser(ctx context.Context, s *session.Session, email string) (string, error) {
	token, err := authorize(s)
	if err != nil {
		return "", err
	}
	var message string
	if err := c.do(ctx, token, "deleteUserByEmail", deleteUserByEmailMutation, map[string]any{"email": email}, &message); err != nil {
		return "", err
	}
	return message, nil
}

func (c *Client) GetUser(ctx context.Context, s *session.Session, id int64) (*domain.User, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	var out userPayload
	if err := c.do(ctx, token, "getUserById", getUserByIDQuery, map[string]any{"userId": id}, &out); err != nil {
		return nil, err
	}
	user := out.toDomain()
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context, s *session.Session) ([]domain.User, error) {
	return c.listUsers(ctx, s, "getAllUser", getAllUserQuery)
}

func (c *Client) ListAdmins(ctx context.Context, s *session.Session) ([]domain.User, error) {
	return c.listUsers(ctx, s, "getAllAdmin", getAllAdminQuery)
}

func (c *Client) listUsers(ctx context.Context, s *session.Session, operation, query string) ([]domain.User, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	var out []userPayload
	if err := c.doList(ctx, token, operation, query, &out); err != nil {
		return nil, err
	}
	return usersToDomain(out), nil
}

func (c *Client) UpdateUser(ctx context.Context, s *session.Session, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	token, err := authorize(s)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{
		"userId": id,
		"userProfileDTO": profileInput{
			Email:        update.Email,
			FirstName:    update.FirstName,
			LastName:     update.LastName,
			PhoneNumber:  update.Phone,
			City:         update.City,
			AadharNumber: update.NationalID,
		},
	}
	var out userPayload
	if err := c.do(ctx, token, "updateUserById", updateUserByIDMutation, vars, &out); err != nil {
		return nil, err
	}
	user := out.toDomain()
	user.ID = id
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, s *session.Session, id int64) (string, error) {
	token, err := authorize(s)
	if err != nil {
		return "", err
	}
	var message string
	if err := c.do(ctx, token, "deleteUserById", deleteUserByIDMutation, map[string]any{"userId": id}, &message); err != nil {
		return "", err
	}
	return message, nil
}

var _ Gateway = (*Client)(nil)
