package game

import (
	"fmt"
	"strings"

	"github.com/ftrbnd/heardle/internal/domain"
)

// Colored squares for the copy-to-clipboard share string
const (
	SquareCorrect = "🟩"
	SquareAlbum   = "🟧"
	SquareWrong   = "🟥"
	SquareDefault = "⬜"
)

// Squares converts a sequence of guess results to share squares in guess order
func Squares(results []domain.GuessResult) string {
	var b strings.Builder
	for _, result := range results {
		switch result {
		case domain.GuessCorrect:
			b.WriteString(SquareCorrect)
		case domain.GuessAlbum:
			b.WriteString(SquareAlbum)
		case domain.GuessWrong:
			b.WriteString(SquareWrong)
		default:
			b.WriteString(SquareDefault)
		}
	}
	return b.String()
}

// RenderShareText formats the full share string for a finished puzzle, e.g.
// "EDEN Heardle #42 3/6 🟥🟧🟩". The score is the 1-based index of the first
// correct guess, or the literal X when the player never found the answer.
func RenderShareText(label string, puzzleNumber int, state domain.DailyPuzzleState, limit int) string {
	score := "X"
	for i, result := range state.ShareText {
		if result == domain.GuessCorrect {
			score = fmt.Sprintf("%d", i+1)
			break
		}
	}
	return fmt.Sprintf("%s #%d %s/%d %s", label, puzzleNumber, score, limit, Squares(state.ShareText))
}
