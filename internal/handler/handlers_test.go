package handler

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// Validation paths below never reach the store, so a nil *store.Store is
// safe to pass.

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	Health()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content-type = %q", got)
	}
}

func TestRollupsRejectsBadDates(t *testing.T) {
	logger := slog.Default()
	cases := []struct {
		name string
		url  string
	}{
		{"bad from", "/api/rollups?from=15-03-2025"},
		{"bad to", "/api/rollups?to=notadate"},
		{"inverted range", "/api/rollups?from=2025-03-15&to=2025-03-01"},
		{"range too large", "/api/rollups?from=2020-01-01&to=2025-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			Rollups(nil, logger)(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestMetricRecordsRejectsBadLimit(t *testing.T) {
	logger := slog.Default()
	for _, url := range []string{"/api/metrics?limit=abc", "/api/metrics?limit=0", "/api/metrics?limit=-5"} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()
		MetricRecords(nil, logger)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", url, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestRecentPurchasesRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/purchases/recent?limit=x", nil)
	rec := httptest.NewRecorder()
	RecentPurchases(nil, slog.Default())(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
