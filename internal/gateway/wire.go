package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/tourplanner/internal/domain"
)

// wireID accepts GraphQL IDs serialized either as strings or numbers.
type wireID int64

func (id *wireID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", data, err)
	}
	*id = wireID(n)
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// wireTime accepts the date and local date-time formats the remote service emits.
type wireTime time.Time

func (t *wireTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*t = wireTime(time.Time{})
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = wireTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

type bookingPayload struct {
	BookingID      wireID   `json:"bookingId"`
	UserID         wireID   `json:"userId"`
	Destination    string   `json:"destination"`
	Rate           int64    `json:"rate"`
	BookingDate    wireTime `json:"bookingDate"`
	NumberOfPeople int      `json:"numberOfPeople"`
	CreatedAt      wireTime `json:"createdAt"`
	Status         string   `json:"status"`
}

func (p bookingPayload) toDomain() domain.Booking {
	return domain.Booking{
		ID:             int64(p.BookingID),
		UserID:         int64(p.UserID),
		Destination:    p.Destination,
		Rate:           p.Rate,
		BookingDate:    time.Time(p.BookingDate),
		NumberOfPeople: p.NumberOfPeople,
		CreatedAt:      time.Time(p.CreatedAt),
		Status:         domain.NormalizeStatus(p.Status),
	}
}

func bookingsToDomain(in []bookingPayload) []domain.Booking {
	out := make([]domain.Booking, 0, len(in))
	for _, p := range in {
		out = append(out, p.toDomain())
	}
	return out
}

type userPayload struct {
	UserID       wireID   `json:"userId"`
	Email        string   `json:"email"`
	UserType     string   `json:"userType"`
	CreatedAt    wireTime `json:"createdAt"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	AadharNumber string   `json:"aadharNumber"`
	City         string   `json:"city"`
	PhoneNumber  string   `json:"phoneNumber"`
}

func (p userPayload) toDomain() domain.User {
	return domain.User{
		ID:         int64(p.UserID),
		Email:      p.Email,
		Type:       domain.UserType(strings.ToUpper(p.UserType)),
		CreatedAt:  time.Time(p.CreatedAt),
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		NationalID: p.AadharNumber,
		City:       p.City,
		Phone:      p.PhoneNumber,
	}
}

func usersToDomain(in []userPayload) []domain.User {
	out := make([]domain.User, 0, len(in))
	for _, p := range in {
		out = append(out, p.toDomain())
	}
	return out
}

type loginPayload struct {
	Token *string `json:"token"`
	Error *string `json:"error"`
}

type bookingInput struct {
	Destination    string `json:"destination"`
	Rate           int64  `json:"rate"`
	BookingDate    string `json:"bookingDate"`
	NumberOfPeople int    `json:"numberOfPeople"`
}

type registerInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	AadharNumber string `json:"aadharNumber"`
	PhoneNumber  string `json:"phoneNumber"`
	City         string `json:"city"`
}

type profileInput struct {
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PhoneNumber  string `json:"phoneNumber"`
	City         string `json:"city"`
	AadharNumber string `json:"aadharNumber"`
}

type contactInput struct {
	City        string `json:"city"`
	PhoneNumber string `json:"phoneNumber"`
}

var (
	_ json.Unmarshaler = (*wireID)(nil)
	_ json.Unmarshaler = (*wireTime)(nil)
)
