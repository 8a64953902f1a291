package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
)

const (
	dailyPuzzleKey = "heardle:daily"
	streakKey      = "heardle:streaks"
)

// Cache provides Redis-backed fast paths: the daily puzzle read on every
// request and the current-streak leaderboard sorted set
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCache creates a new Redis cache
func NewCache(cfg *config.RedisConfig, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// SetDailyPuzzle caches the current daily puzzle. The key expires at the
// rotation boundary, so a cache write missed during rotation leaves a miss
// that falls through to storage instead of yesterday's answer.
func (c *Cache) SetDailyPuzzle(ctx context.Context, puzzle domain.DailyPuzzle) error {
	err := c.client.HSet(ctx, dailyPuzzleKey,
		"song_name", puzzle.Song.Name,
		"song_link", puzzle.Song.Link,
		"song_cover", puzzle.Song.Cover,
		"song_album", puzzle.Song.Album,
		"song_start", puzzle.Song.Start,
		"number", puzzle.Number,
		"next_rotation", puzzle.NextRotation,
	).Err()
	if err != nil {
		return fmt.Errorf("caching daily puzzle: %w", err)
	}

	if err := c.client.ExpireAt(ctx, dailyPuzzleKey, time.Unix(puzzle.NextRotation, 0)).Err(); err != nil {
		return fmt.Errorf("setting puzzle expiry: %w", err)
	}
	return nil
}

// GetDailyPuzzle retrieves the cached daily puzzle
func (c *Cache) GetDailyPuzzle(ctx context.Context) (*domain.DailyPuzzle, error) {
	result, err := c.client.HGetAll(ctx, dailyPuzzleKey).Result()
	if err != nil {
		return nil, fmt.Errorf("getting cached daily puzzle: %w", err)
	}
	if len(result) == 0 {
		return nil, domain.ErrPuzzleNotFound
	}

	start, err := strconv.Atoi(result["song_start"])
	if err != nil {
		return nil, fmt.Errorf("parsing cached puzzle start: %w", err)
	}
	number, err := strconv.Atoi(result["number"])
	if err != nil {
		return nil, fmt.Errorf("parsing cached puzzle number: %w", err)
	}
	next, err := strconv.ParseInt(result["next_rotation"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing cached rotation boundary: %w", err)
	}

	return &domain.DailyPuzzle{
		Song: domain.Song{
			Name:  result["song_name"],
			Link:  result["song_link"],
			Cover: result["song_cover"],
			Album: result["song_album"],
			Start: start,
		},
		Number:       number,
		NextRotation: next,
	}, nil
}

// SetStreak records a player's current streak in the leaderboard
func (c *Cache) SetStreak(ctx context.Context, username string, streak int64) error {
	err := c.client.ZAdd(ctx, streakKey, redis.Z{
		Score:  float64(streak),
		Member: username,
	}).Err()
	if err != nil {
		return fmt.Errorf("setting streak: %w", err)
	}
	return nil
}

// TopStreaks returns the N longest current streaks, best first
func (c *Cache) TopStreaks(ctx context.Context, n int) ([]domain.StreakEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, streakKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting top streaks: %w", err)
	}

	entries := make([]domain.StreakEntry, len(results))
	for i, result := range results {
		entries[i] = domain.StreakEntry{
			Rank:     int64(i + 1),
			Username: result.Member.(string),
			Streak:   int64(result.Score),
		}
	}
	return entries, nil
}
