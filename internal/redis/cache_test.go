package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache, err := NewCache(&config.RedisConfig{Addr: mr.Addr()}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func testPuzzle(nextRotation time.Time) domain.DailyPuzzle {
	return domain.DailyPuzzle{
		Song: domain.Song{
			Name:  "The Answer",
			Link:  "https://cdn.example.com/the-answer.mp3",
			Cover: "https://cdn.example.com/the-record.jpg",
			Album: "The Record",
			Start: 12,
		},
		Number:       42,
		NextRotation: nextRotation.Unix(),
	}
}

func TestDailyPuzzleRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	want := testPuzzle(time.Now().Add(time.Hour))
	require.NoError(t, cache.SetDailyPuzzle(ctx, want))

	got, err := cache.GetDailyPuzzle(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestDailyPuzzleExpiresAtRotationBoundary(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetDailyPuzzle(ctx, testPuzzle(time.Now().Add(time.Hour))))
	assert.Greater(t, mr.TTL(dailyPuzzleKey), time.Duration(0), "the cached puzzle must carry an expiry")

	// past the boundary a stale cache write becomes a miss, not yesterday's
	// answer
	mr.FastForward(2 * time.Hour)
	_, err := cache.GetDailyPuzzle(ctx)
	assert.ErrorIs(t, err, domain.ErrPuzzleNotFound)
}

func TestGetDailyPuzzleMissingKey(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.GetDailyPuzzle(context.Background())
	assert.ErrorIs(t, err, domain.ErrPuzzleNotFound)
}

func TestGetDailyPuzzleCorruptHash(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetDailyPuzzle(ctx, testPuzzle(time.Now().Add(time.Hour))))
	mr.HSet(dailyPuzzleKey, "number", "garbage")

	_, err := cache.GetDailyPuzzle(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPuzzleNotFound, "corruption is an error, not a silent zero puzzle")
}

func TestStreakLeaderboard(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetStreak(ctx, "alice", 5))
	require.NoError(t, cache.SetStreak(ctx, "bob", 2))
	require.NoError(t, cache.SetStreak(ctx, "carol", 0))

	top, err := cache.TopStreaks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, domain.StreakEntry{Rank: 1, Username: "alice", Streak: 5}, top[0])
	assert.Equal(t, domain.StreakEntry{Rank: 2, Username: "bob", Streak: 2}, top[1])
}
