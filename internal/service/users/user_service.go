package users

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Domenick1991/tourplanner/internal/changebus"
	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/gateway"
	"github.com/Domenick1991/tourplanner/internal/session"
)

type UserUseCase interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)
	Profile(ctx context.Context, s *session.Session) (*domain.User, error)
	AdminProfile(ctx context.Context, s *session.Session) (*domain.User, error)
	UpdateProfile(ctx context.Context, s *session.Session, email string, update domain.ContactUpdate) (*domain.User, error)
	DeleteSelf(ctx context.Context, s *session.Session, email string) (string, error)
	GetUser(ctx context.Context, s *session.Session, id int64) (*domain.User, error)
	ListUsers(ctx context.Context, s *session.Session) ([]domain.User, error)
	ListAdmins(ctx context.Context, s *session.Session) ([]domain.User, error)
	UpdateUser(ctx context.Context, s *session.Session, id int64, update domain.ProfileUpdate) (*domain.User, error)
	DeleteUser(ctx context.Context, s *session.Session, id int64) (string, error)
}

// SessionRevoker clears a stored credential.
type SessionRevoker interface {
	Logout(ctx context.Context, id string) error
}

type UserService struct {
	gateway   gateway.Gateway
	publisher changebus.Publisher
	revoker   SessionRevoker
}

type UserServiceOption func(*UserService)

// WithSessionRevoker makes DeleteSelf clear the caller's credential.
func WithSessionRevoker(revoker SessionRevoker) UserServiceOption {
	return func(s *UserService) {
		s.revoker = revoker
	}
}

func NewUserService(gw gateway.Gateway, publisher changebus.Publisher, opts ...UserServiceOption) *UserService {
	service := &UserService{gateway: gw, publisher: publisher}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *UserService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" {
		return nil, errors.New("email is required")
	}
	if reg.Password == "" {
		return nil, errors.New("password is required")
	}
	if reg.FirstName == "" || reg.LastName == "" {
		return nil, errors.New("first and last name are required")
	}

	user, err := s.gateway.RegisterUser(ctx, reg)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(changebus.Users)
	log.Printf("[users] registered %s", user.Email)
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, sess *session.Session) (*domain.User, error) {
	return s.gateway.CurrentProfile(ctx, sess)
}

// AdminProfile reads the signed-in administrator's own record.
func (s *UserService) AdminProfile(ctx context.Context, sess *session.Session) (*domain.User, error) {
	return s.gateway.CurrentAdminProfile(ctx, sess)
}

// UpdateProfile changes the caller's own city and phone number.
func (s *UserService) UpdateProfile(ctx context.Context, sess *session.Session, email string, update domain.ContactUpdate) (*domain.User, error) {
	if email == "" {
		return nil, errors.New("email is required")
	}
	user, err := s.gateway.UpdateCurrentProfile(ctx, sess, email, update)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(changebus.Users)
	return user, nil
}

// DeleteSelf deletes the caller's account. The credential is revoked before
// anything is published, so views still bound to the session refuse to
// re-fetch. The user's bookings go with the account, so both channels are
// notified.
func (s *UserService) DeleteSelf(ctx context.Context, sess *session.Session, email string) (string, error) {
	if email == "" {
		return "", errors.New("email is required")
	}
	message, err := s.gateway.DeleteCurrentUser(ctx, sess, email)
	if err != nil {
		return "", err
	}

	var revokeErr error
	if s.revoker != nil {
		if err := s.revoker.Logout(ctx, sess.ID); err != nil {
			revokeErr = fmt.Errorf("revoke session: %w", err)
		}
	}
	sess.Revoke()
	s.publishDeletion()

	if revokeErr != nil {
		return message, revokeErr
	}
	log.Printf("[users] %s deleted their account", email)
	return message, nil
}

func (s *UserService) GetUser(ctx context.Context, sess *session.Session, id int64) (*domain.User, error) {
	if id <= 0 {
		return nil, errors.New("user id must be positive")
	}
	return s.gateway.GetUser(ctx, sess, id)
}

func (s *UserService) ListUsers(ctx context.Context, sess *session.Session) ([]domain.User, error) {
	return s.gateway.ListUsers(ctx, sess)
}

func (s *UserService) ListAdmins(ctx context.Context, sess *session.Session) ([]domain.User, error) {
	return s.gateway.ListAdmins(ctx, sess)
}

func (s *UserService) UpdateUser(ctx context.Context, sess *session.Session, id int64, update domain.ProfileUpdate) (*domain.User, error) {
	if id <= 0 {
		return nil, errors.New("user id must be positive")
	}
	if strings.TrimSpace(update.Email) == "" {
		return nil, errors.New("email is required")
	}
	user, err := s.gateway.UpdateUser(ctx, sess, id, update)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(changebus.Users)
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, sess *session.Session, id int64) (string, error) {
	if id <= 0 {
		return "", errors.New("user id must be positive")
	}
	message, err := s.gateway.DeleteUser(ctx, sess, id)
	if err != nil {
		return "", err
	}
	s.publishDeletion()
	log.Printf("[users] user %d deleted by %s", id, sess.Subject)
	return message, nil
}

// publishDeletion notifies users first, then bookings, once each.
func (s *UserService) publishDeletion() {
	s.publisher.Publish(changebus.Users)
	s.publisher.Publish(changebus.Bookings)
}

var _ UserUseCase = (*UserService)(nil)
