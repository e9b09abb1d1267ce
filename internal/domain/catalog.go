package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Catalog maps a destination tag to its per-booking rate.
type Catalog map[string]int64

func DefaultCatalog() Catalog {
	return Catalog{
		"Goa":     18000,
		"Mysore":  12000,
		"Shimoga": 10000,
		"Ooty":    15000,
	}
}

func (c Catalog) Destinations() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (c Catalog) Rate(destination string) (int64, bool) {
	rate, ok := c[destination]
	return rate, ok
}

// Validate checks a draft against the catalog. today is truncated to a
// calendar day in its own location.
func (c Catalog) Validate(draft BookingDraft, today time.Time) error {
	if draft.Destination == "" {
		return errors.New("destination is required")
	}
	rate, ok := c.Rate(draft.Destination)
	if !ok {
		return fmt.Errorf("unknown destination %q", draft.Destination)
	}
	if draft.Rate < 0 {
		return errors.New("rate must not be negative")
	}
	if draft.Rate != rate {
		return fmt.Errorf("rate for %s must be %d", draft.Destination, rate)
	}
	if draft.NumberOfPeople <= 0 {
		return errors.New("number of people must be positive")
	}
	if draft.BookingDate.IsZero() {
		return errors.New("booking date is required")
	}
	if dateOf(draft.BookingDate).Before(dateOf(today)) {
		return errors.New("booking date must not be in the past")
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
