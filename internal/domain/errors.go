package domain

import "errors"

// Domain errors
var (
	ErrAlreadyGuessed     = errors.New("song already guessed today")
	ErrGameComplete       = errors.New("game already complete")
	ErrGameNotComplete    = errors.New("game not complete yet")
	ErrInconsistentState  = errors.New("daily puzzle state is inconsistent")
	ErrUserNotFound       = errors.New("user not found")
	ErrSongNotFound       = errors.New("song not found in catalog")
	ErrPuzzleNotFound     = errors.New("daily puzzle not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInternalError      = errors.New("internal server error")
)

// IsValidationError reports whether an error is a guess-rejection that is
// surfaced to the player and never retried
func IsValidationError(err error) bool {
	return errors.Is(err, ErrAlreadyGuessed) || errors.Is(err, ErrGameComplete)
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrSongNotFound) || errors.Is(err, ErrPuzzleNotFound)
}
