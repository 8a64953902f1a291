package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/ftrbnd/heardle/internal/session"
)

type fakeUserStore struct {
	users map[string]*domain.User
}

func (f *fakeUserStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, userID string, fn func(user *domain.User) error) (*domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *user
	if err := fn(&copied); err != nil {
		return nil, err
	}
	f.users[userID] = &copied
	result := copied
	return &result, nil
}

type fakeSongStore struct {
	songs []domain.Song
}

func (f *fakeSongStore) GetSong(_ context.Context, name string) (*domain.Song, error) {
	for _, song := range f.songs {
		if song.Name == name {
			copied := song
			return &copied, nil
		}
	}
	return nil, domain.ErrSongNotFound
}

func (f *fakeSongStore) ListSongs(_ context.Context) ([]domain.Song, error) {
	return f.songs, nil
}

type fakePuzzleSource struct {
	puzzle domain.DailyPuzzle
}

func (f *fakePuzzleSource) GetDailyPuzzle(_ context.Context) (*domain.DailyPuzzle, error) {
	copied := f.puzzle
	return &copied, nil
}

type fakeHub struct {
	snapshots map[string]*domain.User
}

func (f *fakeHub) BroadcastSnapshot(playerKey string, user *domain.User) {
	if f.snapshots == nil {
		f.snapshots = make(map[string]*domain.User)
	}
	f.snapshots[playerKey] = user
}

type fakePublisher struct {
	events []domain.CompletionEvent
}

func (f *fakePublisher) PublishCompletion(_ context.Context, event domain.CompletionEvent) error {
	f.events = append(f.events, event)
	return nil
}

func testSongs() []domain.Song {
	return []domain.Song{
		{Name: "Wrong Answer", Album: "First Album"},
		{Name: "Close Call", Album: "The Record"},
		{Name: "The Answer", Album: "The Record"},
		{Name: "No Album"},
	}
}

func newTestService(t *testing.T) (*GameService, *fakeUserStore, *fakeHub, *fakePublisher) {
	t.Helper()

	users := &fakeUserStore{users: map[string]*domain.User{
		"user-1": {
			ID:      "user-1",
			Profile: domain.Profile{Username: "alice"},
			Statistics: domain.PlayerStatistics{
				GamesPlayed:   4,
				GamesWon:      3,
				CurrentStreak: 2,
				MaxStreak:     2,
			},
			Daily: domain.EmptyDaily(),
		},
	}}
	hub := &fakeHub{}
	publisher := &fakePublisher{}

	svc := NewGameService(
		users,
		&fakeSongStore{songs: testSongs()},
		&fakePuzzleSource{puzzle: domain.DailyPuzzle{
			Song: domain.Song{
				Name:  "The Answer",
				Album: "The Record",
				Link:  "https://cdn.example.com/the-answer.mp3",
				Cover: "https://cdn.example.com/the-record.jpg",
				Start: 12,
			},
			Number: 42,
		}},
		nil,
		session.NewStore(),
		hub,
		publisher,
		&config.GameConfig{GuessLimit: 6, ShareLabel: "EDEN Heardle"},
		slog.Default(),
	)
	return svc, users, hub, publisher
}

func TestSubmitGuessAuthenticatedWin(t *testing.T) {
	svc, users, hub, publisher := newTestService(t)
	ctx := context.Background()
	id := Identity{UserID: "user-1"}

	result, state, err := svc.SubmitGuess(ctx, id, "Wrong Answer")
	require.NoError(t, err)
	assert.Equal(t, domain.GuessWrong, result)
	assert.False(t, state.Complete)

	result, state, err = svc.SubmitGuess(ctx, id, "Close Call")
	require.NoError(t, err)
	assert.Equal(t, domain.GuessAlbum, result)

	result, state, err = svc.SubmitGuess(ctx, id, "The Answer")
	require.NoError(t, err)
	assert.Equal(t, domain.GuessCorrect, result)
	assert.True(t, state.Complete)
	assert.Len(t, state.Progress, 3)

	stats := users.users["user-1"].Statistics
	assert.Equal(t, 5, stats.GamesPlayed)
	assert.Equal(t, 4, stats.GamesWon)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.MaxStreak)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, "alice", event.Username)
	assert.Equal(t, 42, event.PuzzleNumber)
	assert.True(t, event.Won)
	assert.Equal(t, 3, event.Guesses)
	assert.Equal(t, 3, event.CurrentStreak)

	snapshot := hub.snapshots["user-1"]
	require.NotNil(t, snapshot)
	assert.True(t, snapshot.Daily.Complete)
}

func TestSubmitGuessAuthenticatedLossAtLimit(t *testing.T) {
	svc, users, _, publisher := newTestService(t)
	ctx := context.Background()
	id := Identity{UserID: "user-1"}

	svc.songs = &fakeSongStore{songs: []domain.Song{
		{Name: "Miss 1"}, {Name: "Miss 2"}, {Name: "Miss 3"},
		{Name: "Miss 4"}, {Name: "Miss 5"}, {Name: "Miss 6"},
	}}

	var state domain.DailyPuzzleState
	var err error
	for _, name := range []string{"Miss 1", "Miss 2", "Miss 3", "Miss 4", "Miss 5", "Miss 6"} {
		_, state, err = svc.SubmitGuess(ctx, id, name)
		require.NoError(t, err)
	}
	assert.True(t, state.Complete)

	stats := users.users["user-1"].Statistics
	assert.Equal(t, 5, stats.GamesPlayed)
	assert.Equal(t, 3, stats.GamesWon)
	assert.Equal(t, 0, stats.CurrentStreak)
	assert.Equal(t, 2, stats.MaxStreak)

	require.Len(t, publisher.events, 1)
	assert.False(t, publisher.events[0].Won)
	assert.Equal(t, 6, publisher.events[0].Guesses)

	_, _, err = svc.SubmitGuess(ctx, id, "Miss 1")
	assert.ErrorIs(t, err, domain.ErrGameComplete)
}

func TestSubmitGuessValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	id := Identity{UserID: "user-1"}

	_, _, err := svc.SubmitGuess(ctx, id, "Not In Catalog")
	assert.ErrorIs(t, err, domain.ErrSongNotFound)

	_, _, err = svc.SubmitGuess(ctx, id, "Wrong Answer")
	require.NoError(t, err)

	_, _, err = svc.SubmitGuess(ctx, id, "Wrong Answer")
	assert.ErrorIs(t, err, domain.ErrAlreadyGuessed)

	stats, err := svc.Statistics(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.GamesPlayed, "rejected guesses must not touch statistics")
}

func TestAnonymousProgressDiscardedOnLogin(t *testing.T) {
	svc, users, hub, publisher := newTestService(t)
	ctx := context.Background()
	anon := Identity{SessionID: session.NewSessionID()}

	for _, name := range []string{"Wrong Answer", "Close Call", "No Album"} {
		_, _, err := svc.SubmitGuess(ctx, anon, name)
		require.NoError(t, err)
	}

	state, err := svc.State(ctx, anon)
	require.NoError(t, err)
	assert.Len(t, state.Progress, 3)

	snapshot := hub.snapshots[anon.SessionID]
	require.NotNil(t, snapshot)
	assert.Empty(t, snapshot.ID, "anonymous snapshots carry no account")

	svc.HandleLogin(Identity{UserID: "user-1", SessionID: anon.SessionID})

	state, err = svc.State(ctx, anon)
	require.NoError(t, err)
	assert.Empty(t, state.Progress, "local progress is discarded, not merged")

	authedState, err := svc.State(ctx, Identity{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, authedState.Progress)

	assert.Empty(t, publisher.events, "anonymous play never publishes completions")
	assert.Equal(t, 4, users.users["user-1"].Statistics.GamesPlayed)
}

func TestVisibleDailyPuzzleHidesAnswerUntilComplete(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	anon := Identity{SessionID: session.NewSessionID()}

	puzzle, err := svc.VisibleDailyPuzzle(ctx, anon)
	require.NoError(t, err)
	assert.Empty(t, puzzle.Song.Name)
	assert.Empty(t, puzzle.Song.Album)
	assert.Empty(t, puzzle.Song.Cover)
	assert.Equal(t, "https://cdn.example.com/the-answer.mp3", puzzle.Song.Link)
	assert.Equal(t, 12, puzzle.Song.Start)
	assert.Equal(t, 42, puzzle.Number)

	_, _, err = svc.SubmitGuess(ctx, anon, "Wrong Answer")
	require.NoError(t, err)

	puzzle, err = svc.VisibleDailyPuzzle(ctx, anon)
	require.NoError(t, err)
	assert.Empty(t, puzzle.Song.Name, "a game in progress still hides the answer")

	_, _, err = svc.SubmitGuess(ctx, anon, "The Answer")
	require.NoError(t, err)

	puzzle, err = svc.VisibleDailyPuzzle(ctx, anon)
	require.NoError(t, err)
	assert.Equal(t, "The Answer", puzzle.Song.Name)
	assert.Equal(t, "The Record", puzzle.Song.Album)
	assert.Equal(t, "https://cdn.example.com/the-record.jpg", puzzle.Song.Cover)
}

func TestAnonymousStatisticsAreNil(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	stats, err := svc.Statistics(context.Background(), Identity{SessionID: "s-1"})
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestShareText(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()
	id := Identity{UserID: "user-1"}

	_, err := svc.ShareText(ctx, id)
	assert.ErrorIs(t, err, domain.ErrGameNotComplete)

	for _, name := range []string{"Wrong Answer", "Close Call", "The Answer"} {
		_, _, err := svc.SubmitGuess(ctx, id, name)
		require.NoError(t, err)
	}

	text, err := svc.ShareText(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "EDEN Heardle #42 3/6 🟥🟧🟩", text)
}

func TestHandleLogoutIssuesFreshSession(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	fresh := svc.HandleLogout("old-session")
	assert.NotEmpty(t, fresh)
	assert.NotEqual(t, "old-session", fresh)

	state, err := svc.State(context.Background(), Identity{SessionID: fresh})
	require.NoError(t, err)
	assert.Empty(t, state.Progress)
}
