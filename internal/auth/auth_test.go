package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
)

type fakeUserStore struct {
	users  map[string]*domain.User
	creds  map[string]string // email -> password hash
	emails map[string]string // email -> user id
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[string]*domain.User),
		creds:  make(map[string]string),
		emails: make(map[string]string),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user domain.User, email, passwordHash string) error {
	if _, ok := f.emails[email]; ok {
		return domain.ErrEmailTaken
	}
	f.users[user.ID] = &user
	f.creds[email] = passwordHash
	f.emails[email] = user.ID
	return nil
}

func (f *fakeUserStore) GetCredentialsByEmail(_ context.Context, email string) (string, string, error) {
	id, ok := f.emails[email]
	if !ok {
		return "", "", domain.ErrUserNotFound
	}
	return id, f.creds[email], nil
}

func (f *fakeUserStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func newTestService(store UserStore) *Service {
	cfg := &config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
	return NewService(store, cfg, slog.Default())
}

func TestRegisterAndLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	user, token, err := svc.Register(context.Background(), "vertigo", "fan@example.com", "endcredits", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "vertigo", user.Profile.Username)
	assert.Empty(t, user.Daily.Progress)
	assert.Zero(t, user.Statistics.GamesPlayed)

	loggedIn, loginToken, err := svc.Login(context.Background(), "fan@example.com", "endcredits")
	require.NoError(t, err)
	require.NotEmpty(t, loginToken)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	_, _, err := svc.Register(context.Background(), "", "fan@example.com", "endcredits", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, _, err = svc.Register(context.Background(), "vertigo", "not-an-email", "endcredits", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, _, err = svc.Register(context.Background(), "vertigo", "fan@example.com", "short", "")
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("endcredits"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), domain.User{ID: "u1"}, "fan@example.com", string(hash)))

	svc := newTestService(store)

	_, _, err = svc.Login(context.Background(), "fan@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "stranger@example.com", "endcredits")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	token, err := svc.issueToken("user-123")
	require.NoError(t, err)

	userID, err := svc.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	_, err = svc.VerifyToken("garbage")
	assert.Error(t, err)
}
