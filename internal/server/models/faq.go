package models

import "time"

type FAQ struct {
	ID        int64
	Question  string
	Answer    string
	CreatedBy int64
	CreatedAt time.Time

	CreatorName string
}
