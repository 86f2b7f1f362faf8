package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want time.Time
	}{
		{
			name: "seconds with microsecond suffix",
			ts:   "1688149256.000200",
			want: time.Unix(1688149256, 200000).UTC(),
		},
		{
			name: "seconds only",
			ts:   "1688149256",
			want: time.Unix(1688149256, 0).UTC(),
		},
		{
			name: "short fraction",
			ts:   "1688149256.5",
			want: time.Unix(1688149256, 500000000).UTC(),
		},
		{
			name: "overlong fraction truncated to nanos",
			ts:   "1.1234567891",
			want: time.Unix(1, 123456789).UTC(),
		},
		{"empty", "", time.Time{}},
		{"garbage", "not-a-timestamp", time.Time{}},
		{"negative", "-5.1", time.Time{}},
		{"bad fraction", "1688149256.12ab", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimestamp(tt.ts))
		})
	}
}

func TestNewMessage_DerivesWallTime(t *testing.T) {
	m := NewMessage("acme", "#general", "C0123456789", "alice", "hi", "1688149256.000200")

	assert.Equal(t, "acme", m.TeamName)
	assert.Equal(t, time.Unix(1688149256, 200000).UTC(), m.WallTime)
}

func TestSortTime_FallsBackToRawTimestamp(t *testing.T) {
	m := Message{Timestamp: "1688149300.000001"}
	assert.Equal(t, time.Unix(1688149300, 1000).UTC(), m.SortTime())

	m.WallTime = time.Unix(42, 0).UTC()
	assert.Equal(t, time.Unix(42, 0).UTC(), m.SortTime())
}

func TestSkipReasonRetryable(t *testing.T) {
	assert.True(t, SkipRateLimited.Retryable())
	assert.True(t, SkipNetworkTimeout.Retryable())
	assert.True(t, SkipAPIError.Retryable())
	assert.False(t, SkipNotFound.Retryable())
	assert.False(t, SkipInvalidFormat.Retryable())
	assert.False(t, SkipNotAMember.Retryable())
}
