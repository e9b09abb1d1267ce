package domain

import "time"

// StatusAnomaly records a booking status the lifecycle engine did not
// recognize, as seen by one client instance.
type StatusAnomaly struct {
	Status     BookingStatus `json:"status"`
	Source     string        `json:"source"`
	ObservedAt time.Time     `json:"observed_at"`
}
