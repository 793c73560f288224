package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tokenforge/sale-analytics/internal/store"
)

// RecentPurchases serves the most recent confirmed purchase events.
func RecentPurchases(s *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			limit = n
		}

		events, err := s.RecentPurchases(r.Context(), limit)
		if err != nil {
			logger.Error("recent purchases query failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if events == nil {
			events = []store.PurchaseEvent{}
		}
		_ = json.NewEncoder(w).Encode(events)
	}
}
