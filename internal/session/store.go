// Package session holds the anonymous players' puzzle state. It is volatile
// by design: practice play before login lives only in process memory and is
// discarded on sign-in, on sign-out re-initialization, and on daily rotation.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ftrbnd/heardle/internal/domain"
)

// Store keeps per-session daily puzzle state in memory
type Store struct {
	mu     sync.RWMutex
	states map[string]domain.DailyPuzzleState
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		states: make(map[string]domain.DailyPuzzleState),
	}
}

// NewSessionID issues a fresh anonymous session identifier
func NewSessionID() string {
	return uuid.New().String()
}

// Get returns the state for a session, creating an empty one on first contact
func (s *Store) Get(sessionID string) domain.DailyPuzzleState {
	s.mu.RLock()
	state, ok := s.states[sessionID]
	s.mu.RUnlock()
	if !ok {
		return domain.EmptyDaily()
	}
	return state
}

// Update applies fn to a session's state under the store lock, so rapid
// double submissions from the same session serialize instead of racing
func (s *Store) Update(sessionID string, fn func(state domain.DailyPuzzleState) (domain.DailyPuzzleState, error)) (domain.DailyPuzzleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[sessionID]
	if !ok {
		state = domain.EmptyDaily()
	}

	next, err := fn(state)
	if err != nil {
		return state, err
	}

	s.states[sessionID] = next
	return next, nil
}

// Discard drops one session's state, used when that player signs in
func (s *Store) Discard(sessionID string) {
	s.mu.Lock()
	delete(s.states, sessionID)
	s.mu.Unlock()
}

// Reset drops every session's state, used on daily rotation
func (s *Store) Reset() {
	s.mu.Lock()
	s.states = make(map[string]domain.DailyPuzzleState)
	s.mu.Unlock()
}

// Len returns the number of tracked sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
