// Package auth implements the authentication collaborator: account creation,
// credential checks and bearer tokens. The game core only ever sees the
// resolved player identity.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
)

// UserStore is what auth needs from durable storage
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User, email, passwordHash string) error
	GetCredentialsByEmail(ctx context.Context, email string) (userID, passwordHash string, err error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// Service handles registration, login and token verification
type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
}

// NewService creates a new auth service
func NewService(store UserStore, cfg *config.AuthConfig, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		logger: logger,
	}
}

// Register creates a new player account with an empty daily state and fresh
// statistics, and returns a signed token for the new session
func (s *Service) Register(ctx context.Context, username, email, password, avatar string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || !strings.Contains(email, "@") {
		return nil, "", domain.ErrInvalidRequest
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	user := domain.User{
		ID: uuid.New().String(),
		Profile: domain.Profile{
			Username: username,
			Email:    email,
			Avatar:   avatar,
		},
		Statistics: domain.PlayerStatistics{},
		Daily:      domain.EmptyDaily(),
	}

	if err := s.store.CreateUser(ctx, user, email, string(hash)); err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", username)
	return &user, token, nil
}

// Login verifies credentials and returns the user document and a signed token
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	userID, passwordHash, err := s.store.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(userID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", "user_id", userID)
	return user, token, nil
}

// issueToken signs a bearer token identifying the player
func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token and returns the player id it names
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidCredentials
	}
	return claims.Subject, nil
}
