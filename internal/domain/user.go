package domain

// Profile holds a player's display information
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// PlayerStatistics tracks lifetime results for an authenticated player.
// GamesPlayed and GamesWon never decrease; MaxStreak is the running maximum
// of every streak value ever reached.
type PlayerStatistics struct {
	GamesPlayed   int `json:"games_played"`
	GamesWon      int `json:"games_won"`
	CurrentStreak int `json:"current_streak"`
	MaxStreak     int `json:"max_streak"`
}

// DailyPuzzleState accumulates one player's guesses for the current day.
// Progress and ShareText are kept in lockstep: ShareText[i] is exactly the
// result attached to Progress[i]. Complete is monotonic for the day.
type DailyPuzzleState struct {
	Progress  []Song        `json:"progress"`
	ShareText []GuessResult `json:"share_text"`
	Complete  bool          `json:"complete"`
}

// EmptyDaily returns the state every player starts the day with
func EmptyDaily() DailyPuzzleState {
	return DailyPuzzleState{
		Progress:  []Song{},
		ShareText: []GuessResult{},
		Complete:  false,
	}
}

// Validate checks the lockstep invariant. A state that fails validation must
// not be rendered or mutated; the session refuses it rather than repairing it.
func (s DailyPuzzleState) Validate() error {
	if len(s.Progress) != len(s.ShareText) {
		return ErrInconsistentState
	}
	for i, song := range s.Progress {
		if song.Result != s.ShareText[i] {
			return ErrInconsistentState
		}
	}
	if len(s.Progress) > GuessLimit {
		return ErrInconsistentState
	}
	return nil
}

// Guessed reports whether a song with the given name was already guessed
func (s DailyPuzzleState) Guessed(name string) bool {
	for _, song := range s.Progress {
		if song.Name == name {
			return true
		}
	}
	return false
}

// User is the per-player durable document: profile, lifetime statistics and
// the current day's puzzle state
type User struct {
	ID         string           `json:"id"`
	Profile    Profile          `json:"profile"`
	Statistics PlayerStatistics `json:"statistics"`
	Daily      DailyPuzzleState `json:"daily"`
}

// StreakEntry is one row of the current-streak leaderboard
type StreakEntry struct {
	Rank     int64  `json:"rank"`
	Username string `json:"username"`
	Streak   int64  `json:"streak"`
}

// CompletionEvent records one finished daily game, published to the event
// stream when a player's state flips to complete
type CompletionEvent struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	PuzzleNumber  int    `json:"puzzle_number"`
	Won           bool   `json:"won"`
	Guesses       int    `json:"guesses"`
	CurrentStreak int    `json:"current_streak"`
	Timestamp     int64  `json:"timestamp"`
}
