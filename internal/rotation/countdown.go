// Package rotation decides when the daily puzzle rolls over and how long is
// left until it does. The rotation boundary always comes from storage, never
// from client clock arithmetic.
package rotation

import "time"

// Countdown is a clamped time-to-next-puzzle decomposed for display
type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Until computes the time remaining from now until the next rotation,
// clamped at zero. Crossing zero does not by itself reset anything; the new
// puzzle is picked up on the next daily fetch.
func Until(now, next time.Time) Countdown {
	remaining := next.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	total := int(remaining / time.Second)
	return Countdown{
		Hours:   total / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}
