package models

import "time"

const (
	MessageTypeAdmin     = "admin"
	MessageTypeClassmate = "classmate"
)

type Message struct {
	ID          int64
	Title       string
	Content     string
	AuthorID    int64
	MessageType string
	CreatedAt   time.Time

	// AuthorName is joined from users on read.
	AuthorName string
}
