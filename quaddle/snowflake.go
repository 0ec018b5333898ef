package quaddle

import (
	"strconv"
	"time"
)

// Epoch is the instant snowflake timestamps count from.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// timestampOffset is the number of low bits below the millisecond timestamp.
const timestampOffset = 22

// Snowflake is a server-assigned 64-bit identifier. The top bits encode the
// creation time as milliseconds since Epoch.
type Snowflake uint64

// Timestamp extracts the creation time of the snowflake.
func (s Snowflake) Timestamp() time.Time {
	return Epoch.Add(time.Duration(s>>timestampOffset) * time.Millisecond)
}

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// ParseSnowflake parses the decimal form produced by String.
func ParseSnowflake(s string) (Snowflake, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Snowflake(n), nil
}

// UserID identifies a user.
type UserID Snowflake

func (id UserID) Timestamp() time.Time { return Snowflake(id).Timestamp() }
func (id UserID) String() string       { return Snowflake(id).String() }

// ParseUserID parses a decimal user ID.
func ParseUserID(s string) (UserID, error) {
	n, err := ParseSnowflake(s)
	return UserID(n), err
}

// ChannelID identifies a channel.
type ChannelID Snowflake

func (id ChannelID) Timestamp() time.Time { return Snowflake(id).Timestamp() }
func (id ChannelID) String() string       { return Snowflake(id).String() }

// ParseChannelID parses a decimal channel ID.
func ParseChannelID(s string) (ChannelID, error) {
	n, err := ParseSnowflake(s)
	return ChannelID(n), err
}

// MessageID identifies a message.
type MessageID Snowflake

func (id MessageID) Timestamp() time.Time { return Snowflake(id).Timestamp() }
func (id MessageID) String() string       { return Snowflake(id).String() }

// ParseMessageID parses a decimal message ID.
func ParseMessageID(s string) (MessageID, error) {
	n, err := ParseSnowflake(s)
	return MessageID(n), err
}
