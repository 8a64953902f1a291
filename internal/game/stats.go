package game

import "github.com/ftrbnd/heardle/internal/domain"

// ApplyOutcome folds one completed game into a player's lifetime statistics.
// A win extends the current streak, a loss resets it to zero; the max streak
// is the running maximum of every streak value reached.
//
// ApplyOutcome has no memory of prior calls: callers must invoke it exactly
// once per completed day, inside the same storage transaction that flips the
// daily state to complete.
func ApplyOutcome(stats domain.PlayerStatistics, won bool) domain.PlayerStatistics {
	next := stats
	next.GamesPlayed++
	if won {
		next.GamesWon++
		next.CurrentStreak++
	} else {
		next.CurrentStreak = 0
	}
	if next.CurrentStreak > next.MaxStreak {
		next.MaxStreak = next.CurrentStreak
	}
	return next
}
