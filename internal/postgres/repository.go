package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
)

// Repository provides PostgreSQL-based data access. User documents are
// stored as JSONB columns and mutated only through UpdateUser's serialized
// read-modify-write transaction, never a blind overwrite.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS songs (
			name VARCHAR(255) PRIMARY KEY,
			link TEXT NOT NULL,
			cover TEXT DEFAULT '',
			album VARCHAR(255) DEFAULT '',
			start_seconds INT DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			username VARCHAR(64) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			profile JSONB NOT NULL,
			statistics JSONB NOT NULL,
			daily JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS daily_puzzle (
			id INT PRIMARY KEY CHECK (id = 1),
			song_name VARCHAR(255) NOT NULL REFERENCES songs(name),
			number INT NOT NULL,
			next_rotation TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS completion_events (
			id BIGSERIAL PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			puzzle_number INT NOT NULL,
			won BOOLEAN NOT NULL,
			guesses INT NOT NULL,
			current_streak INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_completion_events_user ON completion_events(user_id, created_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// CreateUser inserts a new player with an empty daily state
func (r *Repository) CreateUser(ctx context.Context, user domain.User, email, passwordHash string) error {
	profileJSON, err := json.Marshal(user.Profile)
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	statsJSON, err := json.Marshal(user.Statistics)
	if err != nil {
		return fmt.Errorf("marshaling statistics: %w", err)
	}
	dailyJSON, err := json.Marshal(user.Daily)
	if err != nil {
		return fmt.Errorf("marshaling daily state: %w", err)
	}

	query := `
		INSERT INTO users (id, email, username, password_hash, profile, statistics, daily, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`
	_, err = r.pool.Exec(ctx, query,
		user.ID, email, user.Profile.Username, passwordHash,
		profileJSON, statsJSON, dailyJSON, time.Now(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "users_username_key" {
				return domain.ErrUsernameTaken
			}
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUser retrieves a user document by id. A document whose daily state
// fails the lockstep invariant is refused, not repaired.
func (r *Repository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT id, profile, statistics, daily FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, err
	}
	if err := user.Daily.Validate(); err != nil {
		r.logger.Error("refusing inconsistent user document", "user_id", userID)
		return nil, err
	}
	return user, nil
}

// GetCredentialsByEmail looks up a user's id and password hash for login
func (r *Repository) GetCredentialsByEmail(ctx context.Context, email string) (userID, passwordHash string, err error) {
	query := `SELECT id, password_hash FROM users WHERE email = $1`
	err = r.pool.QueryRow(ctx, query, email).Scan(&userID, &passwordHash)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", "", domain.ErrUserNotFound
		}
		return "", "", fmt.Errorf("getting credentials: %w", err)
	}
	return userID, passwordHash, nil
}

// UpdateUser runs fn against the freshly read user document inside a single
// transaction, holding a row lock for the duration. fn sees current storage
// state, never a stale in-memory copy, so guess validation inside fn holds
// even when two sessions race. A validation error returned by fn aborts the
// transaction and passes through unwrapped.
func (r *Repository) UpdateUser(ctx context.Context, userID string, fn func(user *domain.User) error) (*domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT id, profile, statistics, daily FROM users WHERE id = $1 FOR UPDATE`
	user, err := scanUser(tx.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, err
	}
	if err := user.Daily.Validate(); err != nil {
		r.logger.Error("refusing inconsistent user document", "user_id", userID)
		return nil, err
	}

	if err := fn(user); err != nil {
		return nil, err
	}

	profileJSON, err := json.Marshal(user.Profile)
	if err != nil {
		return nil, fmt.Errorf("marshaling profile: %w", err)
	}
	statsJSON, err := json.Marshal(user.Statistics)
	if err != nil {
		return nil, fmt.Errorf("marshaling statistics: %w", err)
	}
	dailyJSON, err := json.Marshal(user.Daily)
	if err != nil {
		return nil, fmt.Errorf("marshaling daily state: %w", err)
	}

	update := `UPDATE users SET profile = $2, statistics = $3, daily = $4, updated_at = $5 WHERE id = $1`
	if _, err := tx.Exec(ctx, update, userID, profileJSON, statsJSON, dailyJSON, time.Now()); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var profileJSON, statsJSON, dailyJSON []byte
	err := row.Scan(&user.ID, &profileJSON, &statsJSON, &dailyJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	if err := json.Unmarshal(profileJSON, &user.Profile); err != nil {
		return nil, fmt.Errorf("unmarshaling profile: %w", err)
	}
	if err := json.Unmarshal(statsJSON, &user.Statistics); err != nil {
		return nil, fmt.Errorf("unmarshaling statistics: %w", err)
	}
	if err := json.Unmarshal(dailyJSON, &user.Daily); err != nil {
		return nil, fmt.Errorf("unmarshaling daily state: %w", err)
	}
	return &user, nil
}

// ListSongs returns the full song catalog ordered by name
func (r *Repository) ListSongs(ctx context.Context) ([]domain.Song, error) {
	query := `SELECT name, link, cover, album, start_seconds FROM songs ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	defer rows.Close()

	var songs []domain.Song
	for rows.Next() {
		var song domain.Song
		if err := rows.Scan(&song.Name, &song.Link, &song.Cover, &song.Album, &song.Start); err != nil {
			return nil, fmt.Errorf("scanning song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// GetSong retrieves a catalog song by name
func (r *Repository) GetSong(ctx context.Context, name string) (*domain.Song, error) {
	query := `SELECT name, link, cover, album, start_seconds FROM songs WHERE name = $1`
	var song domain.Song
	err := r.pool.QueryRow(ctx, query, name).Scan(&song.Name, &song.Link, &song.Cover, &song.Album, &song.Start)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSongNotFound
		}
		return nil, fmt.Errorf("getting song: %w", err)
	}
	return &song, nil
}

// UpsertSong inserts or updates a catalog song
func (r *Repository) UpsertSong(ctx context.Context, song domain.Song) error {
	query := `
		INSERT INTO songs (name, link, cover, album, start_seconds)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name)
		DO UPDATE SET link = $2, cover = $3, album = $4, start_seconds = $5
	`
	_, err := r.pool.Exec(ctx, query, song.Name, song.Link, song.Cover, song.Album, song.Start)
	if err != nil {
		return fmt.Errorf("upserting song: %w", err)
	}
	return nil
}

// GetDailyPuzzle retrieves the current daily puzzle with its answer song
func (r *Repository) GetDailyPuzzle(ctx context.Context) (*domain.DailyPuzzle, error) {
	query := `
		SELECT s.name, s.link, s.cover, s.album, s.start_seconds, d.number, d.next_rotation
		FROM daily_puzzle d
		JOIN songs s ON s.name = d.song_name
		WHERE d.id = 1
	`
	var puzzle domain.DailyPuzzle
	var next time.Time
	err := r.pool.QueryRow(ctx, query).Scan(
		&puzzle.Song.Name,
		&puzzle.Song.Link,
		&puzzle.Song.Cover,
		&puzzle.Song.Album,
		&puzzle.Song.Start,
		&puzzle.Number,
		&next,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPuzzleNotFound
		}
		return nil, fmt.Errorf("getting daily puzzle: %w", err)
	}
	puzzle.NextRotation = next.Unix()
	return &puzzle, nil
}

// InitDailyPuzzle seeds the daily puzzle row if none exists, picking a random
// catalog song and setting the first rotation boundary
func (r *Repository) InitDailyPuzzle(ctx context.Context, nextRotation time.Time) error {
	query := `
		INSERT INTO daily_puzzle (id, song_name, number, next_rotation)
		SELECT 1, name, 1, $1 FROM songs ORDER BY random() LIMIT 1
		ON CONFLICT (id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, nextRotation)
	if err != nil {
		return fmt.Errorf("initializing daily puzzle: %w", err)
	}
	return nil
}

// RotateDailyPuzzle advances the puzzle to a new random song (never the one
// just played), bumps the puzzle number, moves the rotation boundary forward
// by period until it is in the future, and re-initializes every user's daily
// state. All of it commits atomically.
func (r *Repository) RotateDailyPuzzle(ctx context.Context, period time.Duration) (*domain.DailyPuzzle, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	var number int
	var next time.Time
	err = tx.QueryRow(ctx, `SELECT song_name, number, next_rotation FROM daily_puzzle WHERE id = 1 FOR UPDATE`).
		Scan(&current, &number, &next)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPuzzleNotFound
		}
		return nil, fmt.Errorf("locking daily puzzle: %w", err)
	}

	var puzzle domain.DailyPuzzle
	err = tx.QueryRow(ctx, `
		SELECT name, link, cover, album, start_seconds
		FROM songs WHERE name <> $1 ORDER BY random() LIMIT 1
	`, current).Scan(&puzzle.Song.Name, &puzzle.Song.Link, &puzzle.Song.Cover, &puzzle.Song.Album, &puzzle.Song.Start)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSongNotFound
		}
		return nil, fmt.Errorf("picking next song: %w", err)
	}

	// Catch up missed boundaries after downtime
	now := time.Now()
	for !next.After(now) {
		next = next.Add(period)
	}

	puzzle.Number = number + 1
	puzzle.NextRotation = next.Unix()

	_, err = tx.Exec(ctx, `UPDATE daily_puzzle SET song_name = $1, number = $2, next_rotation = $3 WHERE id = 1`,
		puzzle.Song.Name, puzzle.Number, next)
	if err != nil {
		return nil, fmt.Errorf("updating daily puzzle: %w", err)
	}

	emptyJSON, err := json.Marshal(domain.EmptyDaily())
	if err != nil {
		return nil, fmt.Errorf("marshaling empty daily state: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET daily = $1, updated_at = $2`, emptyJSON, now); err != nil {
		return nil, fmt.Errorf("resetting daily states: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing rotation: %w", err)
	}
	return &puzzle, nil
}

// RecordCompletion records a finished game for auditing
func (r *Repository) RecordCompletion(ctx context.Context, event domain.CompletionEvent) error {
	query := `
		INSERT INTO completion_events (user_id, puzzle_number, won, guesses, current_streak, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		event.UserID,
		event.PuzzleNumber,
		event.Won,
		event.Guesses,
		event.CurrentStreak,
		time.Unix(event.Timestamp, 0),
	)
	if err != nil {
		return fmt.Errorf("recording completion: %w", err)
	}
	return nil
}
