package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ftrbnd/heardle/internal/domain"
	"github.com/ftrbnd/heardle/internal/service"
)

type captureStreakCache struct {
	requested int
}

func (c *captureStreakCache) SetStreak(_ context.Context, _ string, _ int64) error {
	return nil
}

func (c *captureStreakCache) TopStreaks(_ context.Context, limit int) ([]domain.StreakEntry, error) {
	c.requested = limit
	return []domain.StreakEntry{}, nil
}

func TestGetLeaderboardLimitCapped(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "default", query: "", want: 10},
		{name: "explicit", query: "?limit=25", want: 25},
		{name: "capped", query: "?limit=1000000000", want: maxLeaderboardLimit},
		{name: "non-positive falls back", query: "?limit=-5", want: 10},
		{name: "garbage falls back", query: "?limit=lots", want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &captureStreakCache{}
			h := NewHandler(nil, service.NewLeaderboardService(cache, nil, slog.Default()), nil, nil, slog.Default())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard"+tt.query, nil)
			rec := httptest.NewRecorder()
			h.GetLeaderboard(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, cache.requested)
		})
	}
}
