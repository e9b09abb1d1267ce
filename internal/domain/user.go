package domain

import (
	"strings"
	"time"
)

type UserType string

const (
	UserTypeUser  UserType = "USER"
	UserTypeAdmin UserType = "ADMIN"
)

type User struct {
	ID         int64
	Email      string
	Type       UserType
	CreatedAt  time.Time
	FirstName  string
	LastName   string
	NationalID string
	City       string
	Phone      string
}

// ProfileUpdate carries the fields an administrator may edit. ID and Type
// are never editable.
type ProfileUpdate struct {
	Email      string
	FirstName  string
	LastName   string
	NationalID string
	City       string
	Phone      string
}

// ContactUpdate carries the fields a user may edit on their own profile.
type ContactUpdate struct {
	City  string
	Phone string
}

type Registration struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	NationalID string
	City       string
	Phone      string
}

// Initials returns the upper-cased first letters of the first and last name.
func (u User) Initials() string {
	var out []rune
	for _, name := range []string{u.FirstName, u.LastName} {
		for _, r := range name {
			out = append(out, r)
			break
		}
	}
	return strings.ToUpper(string(out))
}
