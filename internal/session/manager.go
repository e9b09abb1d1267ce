package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/google/uuid"
)

// Authenticator exchanges credentials for an opaque bearer token. User and
// admin logins are distinct namespaces on the remote service.
type Authenticator interface {
	LoginUser(ctx context.Context, email, password string) (string, error)
	LoginAdmin(ctx context.Context, email, password string) (string, error)
}

type Manager struct {
	auth  Authenticator
	store Store
	ttl   time.Duration
	now   func() time.Time
}

type ManagerOption func(*Manager)

// WithDefaultTTL bounds sessions whose credential carries no expiry.
func WithDefaultTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(auth Authenticator, store Store, opts ...ManagerOption) *Manager {
	m := &Manager{auth: auth, store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login authenticates in the namespace of role and persists the resulting
// credential under a fresh session id.
func (m *Manager) Login(ctx context.Context, role domain.UserType, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	var (
		token string
		err   error
	)
	switch role {
	case domain.UserTypeAdmin:
		token, err = m.auth.LoginAdmin(ctx, email, password)
	case domain.UserTypeUser:
		token, err = m.auth.LoginUser(ctx, email, password)
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.NewString(),
		Credential: token,
		Role:       role,
		Subject:    email,
	}
	if claims, ok := ParseClaims(token); ok {
		if claims.Role != "" && claims.Role != role {
			return nil, &domain.RemoteRejectedError{
				Operation:      "login",
				Message:        fmt.Sprintf("credential was issued for %s", claims.Role),
				Classification: "FORBIDDEN",
			}
		}
		if claims.Subject != "" {
			s.Subject = claims.Subject
		}
		s.ExpiresAt = claims.ExpiresAt
	}
	if s.ExpiresAt.IsZero() && m.ttl > 0 {
		s.ExpiresAt = m.now().Add(m.ttl)
	}

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	log.Printf("[session] %s signed in as %s (session %s)", s.Subject, s.Role, s.ID)
	return s, nil
}

// Lookup returns the stored session, or domain.ErrUnauthenticated when it is
// missing or its credential has expired.
func (m *Manager) Lookup(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, domain.ErrUnauthenticated
	}
	s, err := m.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !s.Valid(m.now()) {
		_ = m.store.Delete(ctx, id)
		return nil, domain.ErrUnauthenticated
	}
	return s, nil
}

// Logout clears the stored credential. It is safe to call for unknown ids.
func (m *Manager) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
