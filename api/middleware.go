package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/session"
	"github.com/Domenick1991/tourplanner/internal/workspace"
	"github.com/gin-gonic/gin"
)

const (
	sessionKey   = "session"
	workspaceKey = "workspace"
)

type SessionManager interface {
	Login(ctx context.Context, role domain.UserType, email, password string) (*session.Session, error)
	Lookup(ctx context.Context, id string) (*session.Session, error)
	Logout(ctx context.Context, id string) error
}

type Workspaces interface {
	Open(ctx context.Context, s *session.Session) (*workspace.Workspace, error)
	Close(id string)
}

// CookieConfig describes the session cookie handed to browsers.
type CookieConfig struct {
	Name   string
	MaxAge int
	Secure bool
}

// Auth resolves the session cookie and opens the caller's workspace.
type Auth struct {
	sessions   SessionManager
	workspaces Workspaces
	cookie     CookieConfig
}

func NewAuth(sessions SessionManager, workspaces Workspaces, cookie CookieConfig) *Auth {
	return &Auth{sessions: sessions, workspaces: workspaces, cookie: cookie}
}

// Require rejects requests without a live session, and requests from any
// other role when role is set.
func (a *Auth) Require(role domain.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(a.cookie.Name)
		sess, err := a.sessions.Lookup(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) && id != "" {
				a.workspaces.Close(id)
				a.clearCookie(c)
			}
			writeError(c, err)
			c.Abort()
			return
		}
		if role != "" && sess.Role != role {
			c.JSON(http.StatusForbidden, errorResponse{Error: "not allowed for " + strings.ToLower(string(sess.Role)) + " accounts"})
			c.Abort()
			return
		}

		ws, err := a.workspaces.Open(c.Request.Context(), sess)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Set(workspaceKey, ws)
		c.Next()
	}
}

func (a *Auth) setCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cookie.Name, id, a.cookie.MaxAge, "/", "", a.cookie.Secure, true)
}

func (a *Auth) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cookie.Name, "", -1, "/", "", a.cookie.Secure, true)
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

func currentWorkspace(c *gin.Context) *workspace.Workspace {
	return c.MustGet(workspaceKey).(*workspace.Workspace)
}

// CORS adds Access-Control headers for allowed origins and short-circuits
// OPTIONS requests.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	normalized := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
			break
		}
		normalized = append(normalized, strings.ToLower(origin))
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || containsOrigin(normalized, origin)) {
			// Credentialed requests need the concrete origin, never "*".
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
			c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func containsOrigin(allowed []string, origin string) bool {
	origin = strings.ToLower(origin)
	for _, candidate := range allowed {
		if candidate == origin {
			return true
		}
	}
	return false
}
