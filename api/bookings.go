package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
	"github.com/Domenick1991/tourplanner/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
	auth    *Auth
}

type createBookingRequest struct {
	Destination    string `json:"destination"`
	Rate           int64  `json:"rate"`
	BookingDate    string `json:"booking_date"`
	NumberOfPeople int    `json:"number_of_people"`
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type bookingDetailResponse struct {
	Booking         bookingResponse `json:"booking"`
	AllowedStatuses []string        `json:"allowed_statuses"`
}

type catalogEntry struct {
	Destination string `json:"destination"`
	Rate        int64  `json:"rate"`
}

func NewBookingHandler(service booking.BookingUseCase, auth *Auth) *BookingHandler {
	return &BookingHandler{service: service, auth: auth}
}

// Register mounts the user routes on router and the administrator routes on
// admin.
func (h *BookingHandler) Register(router, admin *gin.RouterGroup) {
	router.GET("/catalog", h.catalog)

	mine := router.Group("/bookings", h.auth.Require(domain.UserTypeUser))
	mine.GET("", h.listMine)
	mine.POST("", h.create)
	mine.GET("/:id/statuses", h.myAllowedStatuses)
	mine.POST("/:id/cancel", h.cancel)

	all := admin.Group("/bookings", h.auth.Require(domain.UserTypeAdmin))
	all.GET("", h.listAll)
	all.GET("/:id", h.search)
	all.PUT("/:id/status", h.changeStatus)
}

func (h *BookingHandler) catalog(c *gin.Context) {
	catalog := h.service.Catalog()
	out := make([]catalogEntry, 0, len(catalog))
	for _, name := range catalog.Destinations() {
		rate, _ := catalog.Rate(name)
		out = append(out, catalogEntry{Destination: name, Rate: rate})
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) listMine(c *gin.Context) {
	v := currentWorkspace(c).MyBookings
	if c.Query("refresh") != "" {
		_ = v.Refresh(c.Request.Context())
	}
	c.JSON(http.StatusOK, toBookingList(v.Items(), v.Loaded(), v.Err()))
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	var date time.Time
	if req.BookingDate != "" {
		parsed, err := time.Parse(dateLayout, req.BookingDate)
		if err != nil {
			badRequest(c, errors.New("booking_date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	created, err := currentWorkspace(c).MyBookings.Create(c.Request.Context(), domain.BookingDraft{
		Destination:    req.Destination,
		Rate:           req.Rate,
		BookingDate:    date,
		NumberOfPeople: req.NumberOfPeople,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(*created))
}

func (h *BookingHandler) myAllowedStatuses(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	statuses, err := currentWorkspace(c).MyBookings.AllowedStatuses(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusStrings(statuses))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	updated, err := currentWorkspace(c).MyBookings.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*updated))
}

func (h *BookingHandler) listAll(c *gin.Context) {
	v := currentWorkspace(c).AllBookings
	if c.Query("refresh") != "" {
		_ = v.Refresh(c.Request.Context())
	}
	c.JSON(http.StatusOK, toBookingList(v.Items(), v.Loaded(), v.Err()))
}

func (h *BookingHandler) search(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	editor := currentWorkspace(c).BookingEditor
	found, err := editor.Search(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingDetailResponse{
		Booking:         toBookingResponse(*found),
		AllowedStatuses: statusStrings(editor.AllowedStatuses()),
	})
}

// changeStatus saves a status for booking id. The editor is pointed at id
// first when it currently shows another booking.
func (h *BookingHandler) changeStatus(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	editor := currentWorkspace(c).BookingEditor
	if shown, selected := editor.Key(); !selected || shown != id {
		if _, err := editor.Search(c.Request.Context(), id); err != nil {
			writeError(c, err)
			return
		}
	}

	updated, err := editor.Save(c.Request.Context(), domain.NormalizeStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*updated))
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, errors.New("booking id must be a positive integer"))
		return 0, false
	}
	return id, true
}
