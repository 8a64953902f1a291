package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ftrbnd/heardle/internal/auth"
	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/ftrbnd/heardle/internal/rotation"
	"github.com/ftrbnd/heardle/internal/service"
	"github.com/ftrbnd/heardle/internal/session"
	"github.com/ftrbnd/heardle/internal/websocket"
)

// SessionHeader carries the anonymous session id. The server issues one on
// the first response and the client echoes it back on every request.
const SessionHeader = "X-Session-ID"

type contextKey string

const identityKey contextKey = "identity"

// Handler provides HTTP handlers for the daily puzzle API
type Handler struct {
	game        *service.GameService
	leaderboard *service.LeaderboardService
	auth        *auth.Service
	hub         *websocket.Hub
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(game *service.GameService, leaderboard *service.LeaderboardService, authService *auth.Service, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		game:        game,
		leaderboard: leaderboard,
		auth:        authService,
		hub:         hub,
		logger:      logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.With(h.identityMiddleware).Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.identityMiddleware)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
		})

		r.Get("/songs", h.ListSongs)
		r.Get("/daily", h.GetDaily)

		r.Route("/game", func(r chi.Router) {
			r.Post("/guess", h.SubmitGuess)
			r.Get("/state", h.GetState)
			r.Get("/share", h.GetShareText)
		})

		r.Get("/statistics", h.GetStatistics)
		r.Get("/leaderboard", h.GetLeaderboard)

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// identityMiddleware resolves the caller to an Identity. A valid bearer token
// wins; otherwise the session header is used, and a fresh session id is
// issued when the caller has neither.
func (h *Handler) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id service.Identity

		if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			userID, err := h.auth.VerifyToken(token)
			if err != nil {
				h.writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
				return
			}
			id.UserID = userID
		}

		id.SessionID = r.Header.Get(SessionHeader)
		if !id.Authenticated() && id.SessionID == "" {
			id.SessionID = session.NewSessionID()
		}
		if id.SessionID != "" {
			w.Header().Set(SessionHeader, id.SessionID)
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) service.Identity {
	id, _ := r.Context().Value(identityKey).(service.Identity)
	return id
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID, X-Session-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Session-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeDomainError maps domain errors to HTTP status codes
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, action string) {
	switch {
	case domain.IsValidationError(err) || errors.Is(err, domain.ErrGameNotComplete):
		h.writeError(w, http.StatusConflict, err)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrUsernameTaken) || errors.Is(err, domain.ErrEmailTaken):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error("failed to "+action, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	websocket.ServeWs(h.hub, id.Key(), h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
}

// LoginRequest is the sign-in payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the account and its bearer token
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account. Any anonymous practice state from the same
// session is discarded.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.Avatar)
	if err != nil {
		h.writeDomainError(w, err, "register")
		return
	}

	h.game.HandleLogin(identityFrom(r))

	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    AuthResponse{User: user, Token: token},
	})
}

// Login signs an account in. Anonymous practice state is discarded, never
// merged into the account's record.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, err, "login")
		return
	}

	id := identityFrom(r)
	id.UserID = user.ID
	h.game.HandleLogin(id)

	h.writeSuccess(w, AuthResponse{User: user, Token: token})
}

// Logout ends the authenticated session and issues a fresh anonymous one
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	fresh := h.game.HandleLogout(id.SessionID)
	w.Header().Set(SessionHeader, fresh)

	h.writeSuccess(w, map[string]string{"session_id": fresh})
}

// ListSongs returns the guessable song catalog
func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := h.game.Catalog(r.Context())
	if err != nil {
		h.writeDomainError(w, err, "list songs")
		return
	}

	h.writeSuccess(w, songs)
}

// DailyResponse is the current puzzle and the countdown to the next one
type DailyResponse struct {
	Puzzle    domain.DailyPuzzle `json:"puzzle"`
	Countdown rotation.Countdown `json:"countdown"`
}

// GetDaily returns the current daily puzzle. The answer fields are redacted
// until the caller has finished today's game.
func (h *Handler) GetDaily(w http.ResponseWriter, r *http.Request) {
	puzzle, err := h.game.VisibleDailyPuzzle(r.Context(), identityFrom(r))
	if err != nil {
		h.writeDomainError(w, err, "get daily puzzle")
		return
	}

	h.writeSuccess(w, DailyResponse{
		Puzzle:    *puzzle,
		Countdown: rotation.Until(time.Now(), time.Unix(puzzle.NextRotation, 0)),
	})
}

// GuessRequest is the guess submission payload
type GuessRequest struct {
	Song string `json:"song"`
}

// GuessResponse carries the evaluated guess and the resulting state
type GuessResponse struct {
	Result domain.GuessResult      `json:"result"`
	State  domain.DailyPuzzleState `json:"state"`
}

// SubmitGuess handles a guess submission
func (h *Handler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
	var req GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	if req.Song == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, state, err := h.game.SubmitGuess(r.Context(), identityFrom(r), req.Song)
	if err != nil {
		h.writeDomainError(w, err, "submit guess")
		return
	}

	h.writeSuccess(w, GuessResponse{Result: result, State: state})
}

// GetState returns the caller's daily puzzle state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	state, err := h.game.State(r.Context(), identityFrom(r))
	if err != nil {
		h.writeDomainError(w, err, "get state")
		return
	}

	h.writeSuccess(w, state)
}

// GetShareText returns the shareable result line for a finished game
func (h *Handler) GetShareText(w http.ResponseWriter, r *http.Request) {
	text, err := h.game.ShareText(r.Context(), identityFrom(r))
	if err != nil {
		h.writeDomainError(w, err, "render share text")
		return
	}

	h.writeSuccess(w, map[string]string{"text": text})
}

// GetStatistics returns the caller's lifetime statistics
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r)
	if !id.Authenticated() {
		h.writeError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials)
		return
	}

	stats, err := h.game.Statistics(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err, "get statistics")
		return
	}

	h.writeSuccess(w, stats)
}

// maxLeaderboardLimit bounds how many rows one request may pull from the
// streak sorted set
const maxLeaderboardLimit = 100

// GetLeaderboard returns the top streaks
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := h.leaderboard.TopStreaks(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, err, "get leaderboard")
		return
	}

	h.writeSuccess(w, entries)
}
