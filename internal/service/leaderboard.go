package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ftrbnd/heardle/internal/domain"
)

// StreakCache is the ranked streak set
type StreakCache interface {
	SetStreak(ctx context.Context, username string, streak int64) error
	TopStreaks(ctx context.Context, limit int) ([]domain.StreakEntry, error)
}

// CompletionStore keeps the durable completion audit trail
type CompletionStore interface {
	RecordCompletion(ctx context.Context, event domain.CompletionEvent) error
}

// LeaderboardService folds completion events into the streak leaderboard
type LeaderboardService struct {
	cache  StreakCache
	store  CompletionStore
	logger *slog.Logger
}

// NewLeaderboardService creates a new leaderboard service. store may be nil
// when the audit trail is disabled.
func NewLeaderboardService(cache StreakCache, store CompletionStore, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		cache:  cache,
		store:  store,
		logger: logger,
	}
}

// RecordCompletion applies one finished game to the leaderboard. A lost game
// zeroes the player's ranked streak.
func (s *LeaderboardService) RecordCompletion(ctx context.Context, event domain.CompletionEvent) error {
	streak := int64(event.CurrentStreak)
	if !event.Won {
		streak = 0
	}

	if err := s.cache.SetStreak(ctx, event.Username, streak); err != nil {
		return fmt.Errorf("updating streak for %s: %w", event.Username, err)
	}

	if s.store != nil {
		if err := s.store.RecordCompletion(ctx, event); err != nil {
			// The ranked set is already updated; the audit row can be missed
			s.logger.Warn("failed to record completion",
				"user_id", event.UserID,
				"puzzle_number", event.PuzzleNumber,
				"error", err)
		}
	}

	s.logger.Debug("completion recorded",
		"username", event.Username,
		"puzzle_number", event.PuzzleNumber,
		"won", event.Won,
		"streak", streak)
	return nil
}

// RecordCompletionBatch applies a batch of completion events in order
func (s *LeaderboardService) RecordCompletionBatch(ctx context.Context, events []domain.CompletionEvent) error {
	for _, event := range events {
		if err := s.RecordCompletion(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// TopStreaks returns the current streak leaderboard, best first
func (s *LeaderboardService) TopStreaks(ctx context.Context, limit int) ([]domain.StreakEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.cache.TopStreaks(ctx, limit)
}
