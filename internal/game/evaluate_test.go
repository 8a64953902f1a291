package game

import (
	"testing"

	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		candidate domain.Song
		answer    domain.Song
		want      domain.GuessResult
	}{
		{
			name:      "matching name is correct",
			candidate: domain.Song{Name: "Gravity", Album: "End Credits"},
			answer:    domain.Song{Name: "Gravity", Album: "End Credits"},
			want:      domain.GuessCorrect,
		},
		{
			name:      "matching name wins regardless of album fields",
			candidate: domain.Song{Name: "Gravity", Album: "i think you think too much of me"},
			answer:    domain.Song{Name: "Gravity"},
			want:      domain.GuessCorrect,
		},
		{
			name:      "same non-empty album is an album match",
			candidate: domain.Song{Name: "Float", Album: "End Credits"},
			answer:    domain.Song{Name: "Gravity", Album: "End Credits"},
			want:      domain.GuessAlbum,
		},
		{
			name:      "different albums are wrong",
			candidate: domain.Song{Name: "Circles", Album: "i think you think too much of me"},
			answer:    domain.Song{Name: "Gravity", Album: "End Credits"},
			want:      domain.GuessWrong,
		},
		{
			name:      "empty album on both sides never album-matches",
			candidate: domain.Song{Name: "Circles"},
			answer:    domain.Song{Name: "Gravity"},
			want:      domain.GuessWrong,
		},
		{
			name:      "empty candidate album against set answer album is wrong",
			candidate: domain.Song{Name: "Circles"},
			answer:    domain.Song{Name: "Gravity", Album: "End Credits"},
			want:      domain.GuessWrong,
		},
		{
			name:      "set candidate album against empty answer album is wrong",
			candidate: domain.Song{Name: "Circles", Album: "End Credits"},
			answer:    domain.Song{Name: "Gravity"},
			want:      domain.GuessWrong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.candidate, tt.answer))
		})
	}
}
