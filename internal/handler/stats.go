package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tokenforge/sale-analytics/internal/cache"
	"github.com/tokenforge/sale-analytics/internal/store"
)

const statsCacheKey = "api:stats:latest"

// Stats serves the most recent snapshot. Responses are cached briefly so
// dashboard polling doesn't hit Postgres on every request.
func Stats(s *store.Store, c *cache.Cache, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if c != nil {
			var cached store.Snapshot
			if c.GetJSON(r.Context(), statsCacheKey, &cached) {
				_ = json.NewEncoder(w).Encode(&cached)
				return
			}
		}

		snap, err := s.LatestSnapshot(r.Context())
		if err != nil {
			logger.Error("latest snapshot query failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if snap == nil {
			http.Error(w, `{"error":"no data available yet"}`, http.StatusServiceUnavailable)
			return
		}

		if c != nil {
			c.SetJSON(r.Context(), statsCacheKey, snap, 30*time.Second)
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}
