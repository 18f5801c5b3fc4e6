package models

import "time"

type Event struct {
	ID          int64
	Title       string
	Description string
	Date        time.Time
	Location    string
	CreatedBy   int64
	CreatedAt   time.Time

	CreatorName string
}
