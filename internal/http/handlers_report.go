package http

import (
	"net/http"
	"strings"
	"time"

	"bahikhata/internal/core"
)

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	date := time.Now().UTC()
	if v := strings.TrimSpace(r.URL.Query().Get("date")); v != "" {
		parsed, err := parseFlexibleTime(v)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid date format")
			return
		}
		date = parsed
	}

	report, err := s.reports.GenerateDailyReport(r.Context(), userID, date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUserCaches(userID)
	writeJSON(w, http.StatusOK, toReportPayload(report))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	limit := queryInt(r, "limit", 30)
	if limit < 1 {
		writeDetail(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	key := s.reportsCacheKey(userID, limit)
	if cached, ok := s.reportsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toReportPayloads(cached))
		return
	}

	reports, err := s.reports.ListReports(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.reportsCache.Set(key, reports)
	writeJSON(w, http.StatusOK, toReportPayloads(reports))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	days := queryInt(r, "days", 30)

	series, err := s.cachedAnalytics(r, userID, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsPayload(series))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	days := queryInt(r, "days", 7)

	snap, err := s.reports.Dashboard(r.Context(), userID, days)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Dashboard regenerates today's report, so cached reads are stale now.
	s.invalidateUserCaches(userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"report":    toReportPayload(snap.Report),
		"analytics": toAnalyticsPayload(snap.Series),
	})
}

func (s *Server) cachedAnalytics(r *http.Request, userID string, days int) (series core.AnalyticsSeries, err error) {
	key := s.analyticsCacheKey(userID, days)
	if cached, ok := s.analyticsCache.Get(key); ok {
		return cached, nil
	}
	series, err = s.reports.Analytics(r.Context(), userID, days)
	if err != nil {
		return series, err
	}
	s.analyticsCache.Set(key, series)
	return series, nil
}
