package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/ftrbnd/heardle/internal/game"
	"github.com/ftrbnd/heardle/internal/session"
)

// Identity names the player behind a request. Authenticated players carry a
// stable account id; everyone else is keyed by a volatile session id.
type Identity struct {
	UserID    string
	SessionID string
}

// Authenticated reports whether the identity is a signed-in account
func (i Identity) Authenticated() bool {
	return i.UserID != ""
}

// Key returns the player key used for snapshot routing
func (i Identity) Key() string {
	if i.Authenticated() {
		return i.UserID
	}
	return i.SessionID
}

// UserStore is the durable per-player document store. UpdateUser must run fn
// against the freshly read document inside a serialized transaction.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateUser(ctx context.Context, userID string, fn func(user *domain.User) error) (*domain.User, error)
}

// SongStore is the read-only song catalog
type SongStore interface {
	GetSong(ctx context.Context, name string) (*domain.Song, error)
	ListSongs(ctx context.Context) ([]domain.Song, error)
}

// PuzzleSource reads the current daily puzzle from durable storage
type PuzzleSource interface {
	GetDailyPuzzle(ctx context.Context) (*domain.DailyPuzzle, error)
}

// PuzzleCache fronts the puzzle source for the per-request read path
type PuzzleCache interface {
	GetDailyPuzzle(ctx context.Context) (*domain.DailyPuzzle, error)
	SetDailyPuzzle(ctx context.Context, puzzle domain.DailyPuzzle) error
}

// SnapshotBroadcaster pushes committed user documents to open sessions
type SnapshotBroadcaster interface {
	BroadcastSnapshot(playerKey string, user *domain.User)
}

// CompletionPublisher hands finished games to the event stream
type CompletionPublisher interface {
	PublishCompletion(ctx context.Context, event domain.CompletionEvent) error
}

// GameService coordinates the daily puzzle between the two player modes.
// Anonymous mutations hit the in-memory session store only; authenticated
// mutations go through the durable store's serialized transaction, and the
// committed document is broadcast as the authoritative snapshot. Logging in
// discards anonymous progress rather than merging it.
type GameService struct {
	users     UserStore
	songs     SongStore
	puzzles   PuzzleSource
	cache     PuzzleCache
	local     *session.Store
	hub       SnapshotBroadcaster
	publisher CompletionPublisher
	config    *config.GameConfig
	logger    *slog.Logger
}

// NewGameService creates a new game service. publisher may be nil when the
// completion stream is disabled.
func NewGameService(
	users UserStore,
	songs SongStore,
	puzzles PuzzleSource,
	cache PuzzleCache,
	local *session.Store,
	hub SnapshotBroadcaster,
	publisher CompletionPublisher,
	cfg *config.GameConfig,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		users:     users,
		songs:     songs,
		puzzles:   puzzles,
		cache:     cache,
		local:     local,
		hub:       hub,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
	}
}

// DailyPuzzle returns the current puzzle, cache-first
func (s *GameService) DailyPuzzle(ctx context.Context) (*domain.DailyPuzzle, error) {
	if s.cache != nil {
		if puzzle, err := s.cache.GetDailyPuzzle(ctx); err == nil {
			return puzzle, nil
		}
	}

	puzzle, err := s.puzzles.GetDailyPuzzle(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting daily puzzle: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetDailyPuzzle(ctx, *puzzle); err != nil {
			s.logger.Warn("failed to prime puzzle cache", "error", err)
		}
	}
	return puzzle, nil
}

// VisibleDailyPuzzle returns the current puzzle as the identified caller may
// see it. Playback fields are always present; the answer's name, album and
// cover stay hidden until the caller's own game is complete.
func (s *GameService) VisibleDailyPuzzle(ctx context.Context, id Identity) (*domain.DailyPuzzle, error) {
	puzzle, err := s.DailyPuzzle(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	if state.Complete {
		return puzzle, nil
	}

	redacted := *puzzle
	redacted.Song.Name = ""
	redacted.Song.Album = ""
	redacted.Song.Cover = ""
	return &redacted, nil
}

// Catalog returns the song list players guess from
func (s *GameService) Catalog(ctx context.Context) ([]domain.Song, error) {
	return s.songs.ListSongs(ctx)
}

// SubmitGuess applies one guess for the identified player and returns the
// evaluated result plus the new authoritative state. Guesses must name a
// catalog song; validation rejections happen before any write.
func (s *GameService) SubmitGuess(ctx context.Context, id Identity, songName string) (domain.GuessResult, domain.DailyPuzzleState, error) {
	candidate, err := s.songs.GetSong(ctx, songName)
	if err != nil {
		return "", domain.DailyPuzzleState{}, err
	}

	puzzle, err := s.DailyPuzzle(ctx)
	if err != nil {
		return "", domain.DailyPuzzleState{}, err
	}

	if id.Authenticated() {
		return s.submitAuthenticated(ctx, id, *candidate, puzzle)
	}
	return s.submitAnonymous(id, *candidate, puzzle)
}

// submitAuthenticated applies the guess inside the user document transaction.
// The guess is validated against the document read in the transaction, not a
// possibly-stale copy, so racing sessions cannot exceed the guess limit; the
// statistics fold happens in the same commit as the completion flip.
func (s *GameService) submitAuthenticated(ctx context.Context, id Identity, candidate domain.Song, puzzle *domain.DailyPuzzle) (domain.GuessResult, domain.DailyPuzzleState, error) {
	var result domain.GuessResult
	var completion *domain.CompletionEvent

	updated, err := s.users.UpdateUser(ctx, id.UserID, func(user *domain.User) error {
		next, res, err := game.SubmitGuess(user.Daily, candidate, puzzle.Song, s.config.GuessLimit)
		if err != nil {
			return err
		}
		result = res

		if next.Complete && !user.Daily.Complete {
			won := res == domain.GuessCorrect
			user.Statistics = game.ApplyOutcome(user.Statistics, won)
			completion = &domain.CompletionEvent{
				UserID:        user.ID,
				Username:      user.Profile.Username,
				PuzzleNumber:  puzzle.Number,
				Won:           won,
				Guesses:       len(next.Progress),
				CurrentStreak: user.Statistics.CurrentStreak,
				Timestamp:     time.Now().Unix(),
			}
		}
		user.Daily = next
		return nil
	})
	if err != nil {
		return "", domain.DailyPuzzleState{}, err
	}

	s.hub.BroadcastSnapshot(id.UserID, updated)

	if completion != nil && s.publisher != nil {
		if err := s.publisher.PublishCompletion(ctx, *completion); err != nil {
			// The game result is already committed; losing the event only
			// delays the leaderboard
			s.logger.Warn("failed to publish completion event", "user_id", id.UserID, "error", err)
		}
	}

	return result, updated.Daily, nil
}

// submitAnonymous applies the guess to volatile session state. No statistics
// are kept and nothing survives sign-in or rotation.
func (s *GameService) submitAnonymous(id Identity, candidate domain.Song, puzzle *domain.DailyPuzzle) (domain.GuessResult, domain.DailyPuzzleState, error) {
	var result domain.GuessResult

	state, err := s.local.Update(id.SessionID, func(state domain.DailyPuzzleState) (domain.DailyPuzzleState, error) {
		next, res, err := game.SubmitGuess(state, candidate, puzzle.Song, s.config.GuessLimit)
		if err != nil {
			return state, err
		}
		result = res
		return next, nil
	})
	if err != nil {
		return "", domain.DailyPuzzleState{}, err
	}

	s.hub.BroadcastSnapshot(id.SessionID, &domain.User{Daily: state})
	return result, state, nil
}

// State returns the identified player's current daily puzzle state
func (s *GameService) State(ctx context.Context, id Identity) (domain.DailyPuzzleState, error) {
	if !id.Authenticated() {
		return s.local.Get(id.SessionID), nil
	}

	user, err := s.users.GetUser(ctx, id.UserID)
	if err != nil {
		return domain.DailyPuzzleState{}, err
	}
	return user.Daily, nil
}

// Statistics returns lifetime statistics, or nil for anonymous players
func (s *GameService) Statistics(ctx context.Context, id Identity) (*domain.PlayerStatistics, error) {
	if !id.Authenticated() {
		return nil, nil
	}

	user, err := s.users.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	stats := user.Statistics
	return &stats, nil
}

// ShareText renders the copy-to-clipboard result line for a finished puzzle
func (s *GameService) ShareText(ctx context.Context, id Identity) (string, error) {
	state, err := s.State(ctx, id)
	if err != nil {
		return "", err
	}
	if !state.Complete {
		return "", domain.ErrGameNotComplete
	}

	puzzle, err := s.DailyPuzzle(ctx)
	if err != nil {
		return "", err
	}
	return game.RenderShareText(s.config.ShareLabel, puzzle.Number, state, s.config.GuessLimit), nil
}

// HandleLogin performs the anonymous-to-authenticated transition: the local
// practice state is discarded, never merged into the account's record
func (s *GameService) HandleLogin(id Identity) {
	if id.SessionID != "" {
		s.local.Discard(id.SessionID)
	}
}

// HandleLogout performs the authenticated-to-anonymous transition: the
// durable record is left untouched and the caller starts over with a fresh
// empty session
func (s *GameService) HandleLogout(oldSessionID string) string {
	if oldSessionID != "" {
		s.local.Discard(oldSessionID)
	}
	return session.NewSessionID()
}
