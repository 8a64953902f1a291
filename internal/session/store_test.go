package session

import (
	"testing"

	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsEmptyStateForUnknownSession(t *testing.T) {
	store := NewStore()
	state := store.Get("nobody")
	assert.Empty(t, state.Progress)
	assert.Empty(t, state.ShareText)
	assert.False(t, state.Complete)
}

func TestUpdatePersistsState(t *testing.T) {
	store := NewStore()
	id := NewSessionID()

	_, err := store.Update(id, func(state domain.DailyPuzzleState) (domain.DailyPuzzleState, error) {
		state.Progress = append(state.Progress, domain.Song{Name: "Circles", Result: domain.GuessWrong})
		state.ShareText = append(state.ShareText, domain.GuessWrong)
		return state, nil
	})
	require.NoError(t, err)

	state := store.Get(id)
	require.Len(t, state.Progress, 1)
	assert.Equal(t, "Circles", state.Progress[0].Name)
}

func TestUpdateErrorLeavesStateUntouched(t *testing.T) {
	store := NewStore()
	id := NewSessionID()

	_, err := store.Update(id, func(state domain.DailyPuzzleState) (domain.DailyPuzzleState, error) {
		state.ShareText = append(state.ShareText, domain.GuessWrong)
		return state, nil
	})
	require.NoError(t, err)

	_, err = store.Update(id, func(state domain.DailyPuzzleState) (domain.DailyPuzzleState, error) {
		return state, domain.ErrGameComplete
	})
	assert.ErrorIs(t, err, domain.ErrGameComplete)
	assert.Len(t, store.Get(id).ShareText, 1)
}

func TestDiscardAndReset(t *testing.T) {
	store := NewStore()

	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Update(id, func(state domain.DailyPuzzleState) (domain.DailyPuzzleState, error) {
			state.Complete = true
			return state, nil
		})
		require.NoError(t, err)
	}
	require.Equal(t, 3, store.Len())

	store.Discard("b")
	assert.Equal(t, 2, store.Len())
	assert.False(t, store.Get("b").Complete)

	store.Reset()
	assert.Equal(t, 0, store.Len())
	assert.False(t, store.Get("a").Complete)
}
