package rotation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ftrbnd/heardle/internal/config"
	"github.com/ftrbnd/heardle/internal/domain"
)

// PuzzleStore is the durable side of rotation: the current puzzle row and
// the atomic advance to the next one
type PuzzleStore interface {
	GetDailyPuzzle(ctx context.Context) (*domain.DailyPuzzle, error)
	RotateDailyPuzzle(ctx context.Context, period time.Duration) (*domain.DailyPuzzle, error)
}

// PuzzleCache receives the fresh puzzle after each rotation
type PuzzleCache interface {
	SetDailyPuzzle(ctx context.Context, puzzle domain.DailyPuzzle) error
}

// LocalResetter clears volatile anonymous state at rollover
type LocalResetter interface {
	Reset()
}

// RotationNotifier announces the new puzzle number to connected clients
type RotationNotifier interface {
	BroadcastRotation(puzzleNumber int)
}

// Worker watches the stored rotation boundary and advances the daily puzzle
// when it passes. Only the worker mutates the puzzle row; everything else
// reads it.
type Worker struct {
	store    PuzzleStore
	cache    PuzzleCache
	local    LocalResetter
	notifier RotationNotifier
	config   *config.RotationConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewWorker creates a new rotation worker
func NewWorker(
	store PuzzleStore,
	cache PuzzleCache,
	local LocalResetter,
	notifier RotationNotifier,
	cfg *config.RotationConfig,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		store:    store,
		cache:    cache,
		local:    local,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins watching the rotation boundary
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("rotation worker started", "check_interval", w.config.CheckInterval)

	go w.run(ctx)
	return nil
}

// Stop stops the worker
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("rotation worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.checkBoundary(ctx)
		}
	}
}

// checkBoundary rotates the puzzle when the stored boundary has passed
func (w *Worker) checkBoundary(ctx context.Context) {
	puzzle, err := w.store.GetDailyPuzzle(ctx)
	if err != nil {
		w.logger.Error("failed to read daily puzzle", "error", err)
		return
	}

	if time.Now().Unix() < puzzle.NextRotation {
		return
	}

	w.logger.Info("rotation boundary passed", "puzzle_number", puzzle.Number)

	next, err := w.store.RotateDailyPuzzle(ctx, w.config.Period)
	if err != nil {
		w.logger.Error("failed to rotate daily puzzle", "error", err)
		return
	}

	if err := w.cache.SetDailyPuzzle(ctx, *next); err != nil {
		w.logger.Warn("failed to cache rotated puzzle", "error", err)
	}

	w.local.Reset()
	w.notifier.BroadcastRotation(next.Number)

	w.logger.Info("daily puzzle rotated",
		"puzzle_number", next.Number,
		"next_rotation", time.Unix(next.NextRotation, 0),
	)
}

// IsRunning returns whether the worker is currently running
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce performs a single boundary check (useful for manual triggers)
func (w *Worker) RunOnce(ctx context.Context) {
	w.checkBoundary(ctx)
}
