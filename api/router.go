package api

import (
	"log"
	"net/http"

	"github.com/Domenick1991/tourplanner/internal/service/booking"
	"github.com/Domenick1991/tourplanner/internal/service/users"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Sessions       SessionManager
	Workspaces     Workspaces
	Bookings       booking.BookingUseCase
	Users          users.UserUseCase
	Push           Push
	Cookie         CookieConfig
	AllowedOrigins []string
}

// NewRouter wires every handler under /api.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), CORS(deps.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := NewAuth(deps.Sessions, deps.Workspaces, deps.Cookie)
	authHandler := NewAuthHandler(auth, deps.Sessions, deps.Workspaces, deps.Users, deps.Push)

	root := router.Group("/api")
	admin := root.Group("/admin")

	authHandler.Register(root.Group("/auth"))
	NewBookingHandler(deps.Bookings, auth).Register(root, admin)
	NewUserHandler(auth, authHandler).Register(root, admin)

	if deps.Push != nil {
		root.GET("/events", auth.Require(""), func(c *gin.Context) {
			if err := deps.Push.ServeWS(c.Writer, c.Request, currentSession(c).ID); err != nil {
				log.Printf("[api] websocket upgrade failed: %v", err)
			}
		})
	}
	return router
}
