package models

import "time"

// Alumni is a roster record consulted when authorizing registrations.
type Alumni struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	GraduationYear *int
	Company        string
	Position       string
	IsActive       bool
	CreatedAt      time.Time
}
