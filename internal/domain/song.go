package domain

// GuessResult tags a guessed song with how close it landed
type GuessResult string

const (
	GuessCorrect GuessResult = "CORRECT"
	GuessAlbum   GuessResult = "ALBUM"
	GuessWrong   GuessResult = "WRONG"

	// GuessDefault marks a not-yet-guessed slot in a fixed-length display.
	// It never results from evaluating a guess.
	GuessDefault GuessResult = "DEFAULT"
)

// GuessLimit is the maximum number of guesses per daily puzzle
const GuessLimit = 6

// Song represents a catalog entry. Identity is the name, case-sensitive.
type Song struct {
	Name   string      `json:"name"`
	Link   string      `json:"link"`
	Cover  string      `json:"cover,omitempty"`
	Album  string      `json:"album,omitempty"`
	Start  int         `json:"start,omitempty"`
	Result GuessResult `json:"result,omitempty"`
}

// SameSong reports whether two songs share the same identity
func SameSong(a, b Song) bool {
	return a.Name == b.Name
}

// DailyPuzzle is the day's hidden answer plus its rotation metadata
type DailyPuzzle struct {
	Song         Song  `json:"song"`
	Number       int   `json:"number"`
	NextRotation int64 `json:"next_rotation"` // unix seconds
}
