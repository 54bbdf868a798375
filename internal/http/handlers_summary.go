package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleTotals aggregates the caller's ledger, optionally restricted to
// an inclusive date range. Results are cached per user.
func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	userID := UserID(r.Context())
	key := summaryKey(userID, "totals", from.String()+":"+to.String())

	if cached, ok := s.summaryCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Totals cache hit", log.FieldUserID, userID)
		writeSuccess(w, http.StatusOK, envelope{"summary": cached})
		return
	}

	summary, err := s.analysis.Totals(r.Context(), userID, from, to)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.summaryCache.Set(key, summary)
	writeSuccess(w, http.StatusOK, envelope{"summary": summary})
}

// handleMonthlySummary aggregates one calendar month, defaulting to the
// current one.
func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, core.NewValidationf("invalid year '%s'", raw))
			return
		}
		year = y
	}
	if raw := strings.TrimSpace(q.Get("month")); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, core.NewValidationf("invalid month '%s'", raw))
			return
		}
		month = m
	}

	userID := UserID(r.Context())
	key := summaryKey(userID, "monthly", fmt.Sprintf("%04d-%02d", year, month))

	if cached, ok := s.summaryCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Monthly summary cache hit",
			log.FieldUserID, userID, "year", year, "month", month)
		writeSuccess(w, http.StatusOK, envelope{"summary": cached, "year": year, "month": month})
		return
	}

	summary, err := s.analysis.MonthlySummary(r.Context(), userID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.summaryCache.Set(key, summary)
	writeSuccess(w, http.StatusOK, envelope{"summary": summary, "year": year, "month": month})
}

// summaryKey builds a cache key under the user's prefix so mutations can
// drop all of a user's cached aggregates at once.
func summaryKey(userID, kind, params string) string {
	return userID + ":" + kind + ":" + params
}

// invalidateSummaries drops every cached aggregate for the user.
func (s *Server) invalidateSummaries(userID string) {
	if removed := s.summaryCache.DeletePrefix(userID + ":"); removed > 0 {
		slog.Debug("Summary cache invalidated", log.FieldUserID, userID, "entries_removed", removed)
	}
}
