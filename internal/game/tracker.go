package game

import "github.com/ftrbnd/heardle/internal/domain"

// SubmitGuess applies one guess to a daily puzzle state and returns the new
// state plus the evaluated result. The input state is not mutated.
//
// Rejections happen before evaluation: a finished game yields ErrGameComplete
// and a resubmitted song yields ErrAlreadyGuessed, in both cases the returned
// state is the input unchanged. Otherwise the guess and its result are
// appended in lockstep and the game completes on a correct guess or on the
// limit being reached. Guesses cannot be retracted.
func SubmitGuess(state domain.DailyPuzzleState, candidate, answer domain.Song, limit int) (domain.DailyPuzzleState, domain.GuessResult, error) {
	if state.Complete {
		return state, "", domain.ErrGameComplete
	}
	if state.Guessed(candidate.Name) {
		return state, "", domain.ErrAlreadyGuessed
	}

	result := Evaluate(candidate, answer)

	guessed := candidate
	guessed.Result = result

	next := domain.DailyPuzzleState{
		Progress:  make([]domain.Song, 0, len(state.Progress)+1),
		ShareText: make([]domain.GuessResult, 0, len(state.ShareText)+1),
	}
	next.Progress = append(append(next.Progress, state.Progress...), guessed)
	next.ShareText = append(append(next.ShareText, state.ShareText...), result)
	next.Complete = result == domain.GuessCorrect || len(next.Progress) >= limit

	return next, result, nil
}
