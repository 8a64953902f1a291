package game

import (
	"testing"

	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSquares(t *testing.T) {
	results := []domain.GuessResult{
		domain.GuessWrong,
		domain.GuessAlbum,
		domain.GuessCorrect,
		domain.GuessDefault,
	}
	assert.Equal(t, "🟥🟧🟩⬜", Squares(results))
}

func TestRenderShareTextScoresFirstCorrect(t *testing.T) {
	state := domain.DailyPuzzleState{
		Progress: []domain.Song{
			{Name: "Circles", Result: domain.GuessWrong},
			{Name: "Gravity", Result: domain.GuessCorrect},
		},
		ShareText: []domain.GuessResult{domain.GuessWrong, domain.GuessCorrect},
		Complete:  true,
	}
	assert.Equal(t, "EDEN Heardle #12 2/6 🟥🟩", RenderShareText("EDEN Heardle", 12, state, domain.GuessLimit))
}

func TestRenderShareTextLossScoresX(t *testing.T) {
	state := domain.DailyPuzzleState{
		ShareText: []domain.GuessResult{
			domain.GuessWrong, domain.GuessWrong, domain.GuessAlbum,
			domain.GuessWrong, domain.GuessWrong, domain.GuessWrong,
		},
		Complete: true,
	}
	for range state.ShareText {
		state.Progress = append(state.Progress, domain.Song{})
	}
	assert.Equal(t, "EDEN Heardle #3 X/6 🟥🟥🟧🟥🟥🟥", RenderShareText("EDEN Heardle", 3, state, domain.GuessLimit))
}
