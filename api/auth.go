package api

import (
	"log"
	"net/http"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/service/users"
	"github.com/Domenick1991/tourplanner/internal/session"
	"github.com/gin-gonic/gin"
)

// Push delivers view updates to browsers over a long-lived connection.
type Push interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error
	Disconnect(sessionID string)
}

type AuthHandler struct {
	auth       *Auth
	sessions   SessionManager
	workspaces Workspaces
	users      users.UserUseCase
	push       Push
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
}

type sessionResponse struct {
	Role      string   `json:"role"`
	Subject   string   `json:"subject"`
	ExpiresAt string   `json:"expires_at,omitempty"`
	Views     []string `json:"views,omitempty"`
}

func NewAuthHandler(auth *Auth, sessions SessionManager, workspaces Workspaces, users users.UserUseCase, push Push) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, workspaces: workspaces, users: users, push: push}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.POST("/login", h.login(domain.UserTypeUser))
	router.POST("/admin/login", h.login(domain.UserTypeAdmin))
	router.POST("/logout", h.logout)
	router.POST("/register", h.register)
	router.GET("/me", h.auth.Require(""), h.me)
}

func (h *AuthHandler) login(role domain.UserType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		sess, err := h.sessions.Login(c.Request.Context(), role, req.Email, req.Password)
		if err != nil {
			writeError(c, err)
			return
		}
		ws, err := h.workspaces.Open(c.Request.Context(), sess)
		if err != nil {
			writeError(c, err)
			return
		}

		h.auth.setCookie(c, sess.ID)
		c.JSON(http.StatusOK, toSessionResponse(sess, ws.Views()))
	}
}

// logout always succeeds for the browser: the cookie is cleared even when
// the stored session is already gone.
func (h *AuthHandler) logout(c *gin.Context) {
	id, _ := c.Cookie(h.auth.cookie.Name)
	if id != "" {
		h.endSession(c, id)
	}
	h.auth.clearCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) endSession(c *gin.Context, id string) {
	if err := h.sessions.Logout(c.Request.Context(), id); err != nil {
		log.Printf("[api] logout of session %s failed: %v", id, err)
	}
	h.workspaces.Close(id)
	if h.push != nil {
		h.push.Disconnect(id)
	}
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), domain.Registration{
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		NationalID: req.NationalID,
		City:       req.City,
		Phone:      req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(*user))
}

func (h *AuthHandler) me(c *gin.Context) {
	c.JSON(http.StatusOK, toSessionResponse(currentSession(c), currentWorkspace(c).Views()))
}

func toSessionResponse(s *session.Session, views []string) sessionResponse {
	return sessionResponse{
		Role:      string(s.Role),
		Subject:   s.Subject,
		ExpiresAt: formatTime(s.ExpiresAt),
		Views:     views,
	}
}
