package entity

import (
	"strconv"
	"strings"
	"time"
)

// Message is a single channel message normalized across teams.
// Instances are passed by value and never mutated after construction.
type Message struct {
	// TeamName is the configured name of the workspace the message came from.
	TeamName string

	// ChannelName is the resolved display name (e.g. "#general").
	// Falls back to the raw channel ID when resolution failed.
	ChannelName string

	// ChannelID is the platform channel identifier (e.g. "C0123456789").
	ChannelID string

	// UserName is the resolved author display name, falling back to the
	// raw user ID when the directory lookup failed.
	UserName string

	// Text is the raw message body exactly as received.
	Text string

	// Timestamp is the platform timestamp string, fractional epoch
	// seconds (e.g. "1688149256.000200"). Unique per channel.
	Timestamp string

	// WallTime is the timestamp converted to a point in time.
	// Zero when Timestamp was absent or unparseable.
	WallTime time.Time
}

// NewMessage builds a Message and derives WallTime from the platform
// timestamp.
func NewMessage(teamName, channelName, channelID, userName, text, timestamp string) Message {
	return Message{
		TeamName:    teamName,
		ChannelName: channelName,
		ChannelID:   channelID,
		UserName:    userName,
		Text:        text,
		Timestamp:   timestamp,
		WallTime:    ParseTimestamp(timestamp),
	}
}

// ParseTimestamp converts a platform timestamp ("seconds.fraction") to a
// time.Time in UTC. Returns the zero time when the input does not parse.
// The fractional part is interpreted digit-by-digit so microsecond
// timestamps survive without float rounding.
func ParseTimestamp(ts string) time.Time {
	secPart, fracPart, _ := strings.Cut(ts, ".")

	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil || sec < 0 {
		return time.Time{}
	}

	var nsec int64
	if fracPart != "" {
		// Pad or truncate to nanosecond precision.
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil || frac < 0 {
			return time.Time{}
		}
		for i := len(fracPart); i < 9; i++ {
			frac *= 10
		}
		nsec = frac
	}

	return time.Unix(sec, nsec).UTC()
}

// SortTime is the ordering key for chronological processing: WallTime when
// present, otherwise a best-effort parse of the raw timestamp.
func (m Message) SortTime() time.Time {
	if !m.WallTime.IsZero() {
		return m.WallTime
	}
	return ParseTimestamp(m.Timestamp)
}
