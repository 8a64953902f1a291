package service

import (
	"context"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftrbnd/heardle/internal/domain"
)

type fakeStreakCache struct {
	streaks map[string]int64
}

func (f *fakeStreakCache) SetStreak(_ context.Context, username string, streak int64) error {
	if f.streaks == nil {
		f.streaks = make(map[string]int64)
	}
	f.streaks[username] = streak
	return nil
}

func (f *fakeStreakCache) TopStreaks(_ context.Context, limit int) ([]domain.StreakEntry, error) {
	entries := make([]domain.StreakEntry, 0, len(f.streaks))
	for username, streak := range f.streaks {
		entries = append(entries, domain.StreakEntry{Username: username, Streak: streak})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Streak > entries[j].Streak })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	return entries, nil
}

type fakeCompletionStore struct {
	events []domain.CompletionEvent
}

func (f *fakeCompletionStore) RecordCompletion(_ context.Context, event domain.CompletionEvent) error {
	f.events = append(f.events, event)
	return nil
}

func TestRecordCompletion(t *testing.T) {
	cache := &fakeStreakCache{}
	store := &fakeCompletionStore{}
	svc := NewLeaderboardService(cache, store, slog.Default())
	ctx := context.Background()

	err := svc.RecordCompletionBatch(ctx, []domain.CompletionEvent{
		{Username: "alice", Won: true, CurrentStreak: 5, PuzzleNumber: 7},
		{Username: "bob", Won: true, CurrentStreak: 2, PuzzleNumber: 7},
		{Username: "carol", Won: false, CurrentStreak: 0, PuzzleNumber: 7},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), cache.streaks["alice"])
	assert.Equal(t, int64(0), cache.streaks["carol"], "a loss zeroes the ranked streak")
	assert.Len(t, store.events, 3)

	top, err := svc.TopStreaks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "alice", top[0].Username)
	assert.Equal(t, int64(1), top[0].Rank)
	assert.Equal(t, "bob", top[1].Username)
}
