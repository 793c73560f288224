package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tokenforge/sale-analytics/internal/store"
)

// MetricRecords serves the public metric history, newest first. Supports
// optional name, category and limit filters.
func MetricRecords(s *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		q := r.URL.Query()
		limit := 0
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
				return
			}
			limit = n
		}

		records, err := s.PublicMetrics(r.Context(), q.Get("name"), q.Get("category"), limit)
		if err != nil {
			logger.Error("public metrics query failed", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []store.MetricRecord{}
		}
		_ = json.NewEncoder(w).Encode(records)
	}
}
