package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tokenforge/sale-analytics/internal/store"
)

const maxRollupRange = 366

// Rollups serves daily rollups for a date range. Both bounds are
// inclusive days in YYYY-MM-DD form; the range defaults to the last 30
// days when omitted.
func Rollups(s *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		now := time.Now().UTC()
		from := now.AddDate(0, 0, -30)
		to := now

		if v := r.URL.Query().Get("from"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, `{"error":"invalid from date, want YYYY-MM-DD"}`, http.StatusBadRequest)
				return
			}
			from = d
		}
		if v := r.URL.Query().Get("to"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, `{"error":"invalid to date, want YYYY-MM-DD"}`, http.StatusBadRequest)
				return
			}
			to = d
		}
		if to.Before(from) {
			http.Error(w, `{"error":"to is before from"}`, http.StatusBadRequest)
			return
		}
		if to.Sub(from) > maxRollupRange*24*time.Hour {
			http.Error(w, `{"error":"range too large, max 366 days"}`, http.StatusBadRequest)
			return
		}

		rollups, err := s.RollupsInRange(r.Context(), from, to)
		if err != nil {
			logger.Error("rollups query failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if rollups == nil {
			rollups = []store.DailyRollup{}
		}
		_ = json.NewEncoder(w).Encode(rollups)
	}
}
