package models

import "time"

// User is a portal account. VerificationToken is set exactly while
// IsVerified is false.
type User struct {
	ID                int64
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	IsVerified        bool
	IsAdmin           bool
	VerificationToken *string
	CreatedAt         time.Time
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
