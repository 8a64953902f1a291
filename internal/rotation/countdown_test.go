package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntil(t *testing.T) {
	next := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want Countdown
	}{
		{
			name: "an hour a minute and a second away",
			now:  next.Add(-3661 * time.Second),
			want: Countdown{Hours: 1, Minutes: 1, Seconds: 1},
		},
		{
			name: "just under a full day",
			now:  next.Add(-24*time.Hour + time.Second),
			want: Countdown{Hours: 23, Minutes: 59, Seconds: 59},
		},
		{
			name: "exactly at the boundary",
			now:  next,
			want: Countdown{},
		},
		{
			name: "past the boundary clamps to zero",
			now:  next.Add(5 * time.Minute),
			want: Countdown{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Until(tt.now, next))
		})
	}
}
