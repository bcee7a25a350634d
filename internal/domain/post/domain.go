package post

import (
	"strconv"
	"strings"
	"time"
)

// Post is one channel post as stored by tgfeed. (Channel, MessageID) is the
// identity; everything else may be refreshed by a later delivery.
type Post struct {
	Channel    string    `json:"channel"`
	MessageID  int64     `json:"message_id"`
	PostedAt   time.Time `json:"posted_at"`
	Deliveries int       `json:"deliveries"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key is the address the Telegram embed script understands: "<channel>/<id>".
func (p *Post) Key() string { return Key(p.Channel, p.MessageID) }

func Key(channel string, messageID int64) string {
	return channel + "/" + strconv.FormatInt(messageID, 10)
}

// Query selects posts of one channel, newest first.
// Before and After are exclusive bounds and may be combined.
type Query struct {
	Channel string
	Before  *int64
	After   *int64
	Limit   int
}

// NormalizeChannel lowercases a channel username and strips the leading "@".
func NormalizeChannel(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

// SameChannel reports whether two usernames name the same channel.
func SameChannel(a, b string) bool {
	na := NormalizeChannel(a)
	return na != "" && na == NormalizeChannel(b)
}
