package api

import (
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
)

const dateLayout = "2006-01-02"

type bookingResponse struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	Destination    string `json:"destination"`
	Rate           int64  `json:"rate"`
	BookingDate    string `json:"booking_date,omitempty"`
	NumberOfPeople int    `json:"number_of_people"`
	CreatedAt      string `json:"created_at,omitempty"`
	Status         string `json:"status"`
}

type bookingListResponse struct {
	Items  []bookingResponse `json:"items"`
	Loaded bool              `json:"loaded"`
	Error  string            `json:"error,omitempty"`
}

type userResponse struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	Type       string `json:"type"`
	CreatedAt  string `json:"created_at,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	NationalID string `json:"national_id"`
	City       string `json:"city"`
	Phone      string `json:"phone"`
	Initials   string `json:"initials"`
}

type userListResponse struct {
	Items  []userResponse `json:"items"`
	Loaded bool           `json:"loaded"`
	Error  string         `json:"error,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		Destination:    b.Destination,
		Rate:           b.Rate,
		BookingDate:    formatDate(b.BookingDate),
		NumberOfPeople: b.NumberOfPeople,
		CreatedAt:      formatTime(b.CreatedAt),
		Status:         string(b.Status),
	}
}

func toBookingList(items []domain.Booking, loaded bool, err error) bookingListResponse {
	out := bookingListResponse{Items: make([]bookingResponse, 0, len(items)), Loaded: loaded, Error: errString(err)}
	for _, b := range items {
		out.Items = append(out.Items, toBookingResponse(b))
	}
	return out
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		Type:       string(u.Type),
		CreatedAt:  formatTime(u.CreatedAt),
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		NationalID: u.NationalID,
		City:       u.City,
		Phone:      u.Phone,
		Initials:   u.Initials(),
	}
}

func toUserList(items []domain.User, loaded bool, err error) userListResponse {
	out := userListResponse{Items: make([]userResponse, 0, len(items)), Loaded: loaded, Error: errString(err)}
	for _, u := range items {
		out.Items = append(out.Items, toUserResponse(u))
	}
	return out
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
