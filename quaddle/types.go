package quaddle

import "time"

// User is a Quaddle account. Two users are the same user exactly when their
// IDs match; display attributes may change between sightings.
type User struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// Channel is a place messages are posted to.
type Channel struct {
	ID   ChannelID `json:"id"`
	Name string    `json:"name"`
}

// Message is a single posted message. Immutable once received; edits arrive
// as new values with the same ID.
type Message struct {
	ID      MessageID `json:"id"`
	Author  User      `json:"author"`
	Channel ChannelID `json:"channel"`
	Content string    `json:"content"`
}

// Timestamp is the creation time carried in the message ID.
func (m Message) Timestamp() time.Time {
	return m.ID.Timestamp()
}
