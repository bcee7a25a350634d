package post

import "time"

// PublishedEvent announces a post stored for the first time.
type PublishedEvent struct {
	EventID   string    `json:"event_id"`
	Channel   string    `json:"channel"`
	MessageID int64     `json:"message_id"`
	Key       string    `json:"key"`
	PostedAt  time.Time `json:"posted_at"`
}
