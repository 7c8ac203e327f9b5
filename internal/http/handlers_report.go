package http

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) invalidateReports(userID string) {
	s.reportCache.DeletePrefix(userID + "|")
}

// cachedReport serves a marshaled report from the cache, producing and
// caching it on a miss.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request, key string, produce func() (any, error)) {
	if body, ok := s.reportCache.Get(key); ok {
		writeRawJSON(w, http.StatusOK, body)
		return
	}

	v, err := produce()
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.reportCache.Set(key, body)
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleSummaryStats(w http.ResponseWriter, r *http.Request, user core.User) {
	month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.cachedReport(w, r, user.ID+"|stats|"+string(month), func() (any, error) {
		return s.reports.Summary(r.Context(), user.ID, month)
	})
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request, user core.User) {
	month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.cachedReport(w, r, user.ID+"|by-category|"+string(month), func() (any, error) {
		totals, err := s.reports.ByCategory(r.Context(), user.ID, month)
		if totals == nil {
			totals = []core.CategoryTotal{}
		}
		return totals, err
	})
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request, user core.User) {
	s.cachedReport(w, r, user.ID+"|trend", func() (any, error) {
		trend, err := s.reports.MonthlyTrend(r.Context(), user.ID)
		if trend == nil {
			trend = []core.MonthFlow{}
		}
		return trend, err
	})
}

func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request, user core.User) {
	s.cachedReport(w, r, user.ID+"|alerts", func() (any, error) {
		alerts, err := s.reports.BudgetAlerts(r.Context(), user.ID)
		if alerts == nil {
			alerts = []core.BudgetAlert{}
		}
		return alerts, err
	})
}
