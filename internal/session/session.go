package session

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Session is the explicit credential context handed to every authenticated
// gateway call. One exists per signed-in browser.
type Session struct {
	ID         string          `json:"id"`
	Credential string          `json:"credential"`
	Role       domain.UserType `json:"role"`
	Subject    string          `json:"subject"`
	ExpiresAt  time.Time       `json:"expires_at"`

	revoked uint32
}

// Valid reports whether the session holds a credential that has not expired
// at now. A zero ExpiresAt never expires.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Credential == "" || atomic.LoadUint32(&s.revoked) == 1 {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// BearerToken returns the credential if the session may issue authenticated calls.
func (s *Session) BearerToken() (string, bool) {
	if !s.Valid(time.Now()) {
		return "", false
	}
	return s.Credential, true
}

// Revoke drops the credential for every holder of s. Views still bound to the
// session stop issuing authenticated calls from then on.
func (s *Session) Revoke() {
	if s != nil {
		atomic.StoreUint32(&s.revoked, 1)
	}
}

func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == domain.UserTypeAdmin
}

// Claims is what the client reads out of a credential. Signatures are not
// checked here; the remote service does that on every call.
type Claims struct {
	Subject   string
	Role      domain.UserType
	ExpiresAt time.Time
}

// ParseClaims reads the subject, "usertype" and expiry of a JWT credential.
// ok is false when the credential is not a JWT, in which case it is treated
// as fully opaque.
func ParseClaims(credential string) (Claims, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return Claims{}, false
	}

	var out Claims
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if userType, ok := claims["usertype"].(string); ok {
		out.Role = domain.UserType(strings.ToUpper(userType))
	}
	return out, true
}
