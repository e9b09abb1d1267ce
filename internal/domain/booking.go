package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// NormalizeStatus canonicalizes a status as received from the remote service or a form.
func NormalizeStatus(raw string) BookingStatus {
	return BookingStatus(strings.ToUpper(strings.TrimSpace(raw)))
}

// Known reports whether s is one of the four lifecycle states.
func (s BookingStatus) Known() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID             int64
	UserID         int64
	Destination    string
	Rate           int64
	BookingDate    time.Time
	NumberOfPeople int
	CreatedAt      time.Time
	Status         BookingStatus
}

// BookingDraft is what the booking form submits; the remote service assigns the rest.
type BookingDraft struct {
	Destination    string
	Rate           int64
	BookingDate    time.Time
	NumberOfPeople int
}
