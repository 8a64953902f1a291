// Package game holds the pure daily puzzle rules: guess evaluation, progress
// tracking, statistics recurrence and share-text rendering. Nothing here
// performs I/O; persistence wraps these functions in transactions.
package game

import "github.com/ftrbnd/heardle/internal/domain"

// Evaluate maps a candidate song and the daily answer to a guess result.
// CORRECT iff the names match exactly. ALBUM iff both songs carry a non-empty
// album and the albums match; an empty album is "no album", never a wildcard,
// so two empty albums do not ALBUM-match. Everything else is WRONG.
func Evaluate(candidate, answer domain.Song) domain.GuessResult {
	if candidate.Name == answer.Name {
		return domain.GuessCorrect
	}
	if candidate.Album != "" && candidate.Album == answer.Album {
		return domain.GuessAlbum
	}
	return domain.GuessWrong
}
