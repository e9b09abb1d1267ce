package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	auth     *Auth
	sessions *AuthHandler
}

type contactRequest struct {
	City  string `json:"city"`
	Phone string `json:"phone"`
}

type profileRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
}

// NewUserHandler takes the auth handler to end the session of a user who
// deletes their own account.
func NewUserHandler(auth *Auth, sessions *AuthHandler) *UserHandler {
	return &UserHandler{auth: auth, sessions: sessions}
}

func (h *UserHandler) Register(router, admin *gin.RouterGroup) {
	profile := router.Group("/profile", h.auth.Require(domain.UserTypeUser))
	profile.GET("", h.profile)
	profile.PUT("", h.saveProfile)
	profile.DELETE("", h.deleteProfile)

	users := admin.Group("", h.auth.Require(domain.UserTypeAdmin))
	users.GET("/profile", h.profile)
	users.GET("/users", h.listUsers)
	users.GET("/admins", h.listAdmins)
	users.GET("/users/:id", h.search)
	users.PUT("/users/:id", h.saveUser)
	users.DELETE("/users/:id", h.deleteUser)
}

func (h *UserHandler) profile(c *gin.Context) {
	v := currentWorkspace(c).Profile
	if c.Query("refresh") != "" {
		_ = v.Reload(c.Request.Context())
	}
	current, ok := v.Current()
	if !ok {
		if err := v.Err(); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusNotFound, errorResponse{Error: "profile not loaded"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(current))
}

func (h *UserHandler) saveProfile(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := currentWorkspace(c).Profile.Save(c.Request.Context(), domain.ContactUpdate{City: req.City, Phone: req.Phone})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*updated))
}

// deleteProfile removes the caller's account and ends the session.
func (h *UserHandler) deleteProfile(c *gin.Context) {
	message, err := currentWorkspace(c).Profile.Delete(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	h.sessions.endSession(c, currentSession(c).ID)
	h.auth.clearCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: message})
}

func (h *UserHandler) listUsers(c *gin.Context) {
	v := currentWorkspace(c).Users
	if c.Query("refresh") != "" {
		_ = v.Refresh(c.Request.Context())
	}
	c.JSON(http.StatusOK, toUserList(v.Items(), v.Loaded(), v.Err()))
}

func (h *UserHandler) listAdmins(c *gin.Context) {
	v := currentWorkspace(c).Admins
	if c.Query("refresh") != "" {
		_ = v.Refresh(c.Request.Context())
	}
	c.JSON(http.StatusOK, toUserList(v.Items(), v.Loaded(), v.Err()))
}

func (h *UserHandler) search(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	found, err := currentWorkspace(c).UserEditor.Search(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*found))
}

func (h *UserHandler) saveUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	editor := currentWorkspace(c).UserEditor
	if !h.show(c, id) {
		return
	}
	updated, err := editor.Save(c.Request.Context(), domain.ProfileUpdate{
		Email:      req.Email,
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
	c.JSON(http.StatusOK, toUserResponse(*updated))
}

func (h *UserHandler) deleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	if !h.show(c, id) {
		return
	}
	message, err := currentWorkspace(c).UserEditor.Delete(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: message})
}

// show points the user editor at id unless it already displays it. It writes
// the error response and reports false on failure.
func (h *UserHandler) show(c *gin.Context, id int64) bool {
	editor := currentWorkspace(c).UserEditor
	if shown, selected := editor.Key(); selected && shown == id {
		return true
	}
	if _, err := editor.Search(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return false
	}
	return true
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, errors.New("user id must be a positive integer"))
		return 0, false
	}
	return id, true
}
