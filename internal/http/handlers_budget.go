package http

import (
	"net/http"

	"fintrack/internal/core"
)

type budgetCreateRequest struct {
	Category     string  `json:"category"`
	MonthlyLimit float64 `json:"monthly_limit"`
	Year         int     `json:"year,omitempty"`
}

type budgetUpdateRequest struct {
	MonthlyLimit float64 `json:"monthly_limit"`
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.Create(r.Context(), user.ID, req.Category, req.MonthlyLimit, req.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports(user.ID)
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	budgets, err := s.budgets.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	var req budgetUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.budgets.UpdateLimit(r.Context(), user.ID, r.PathValue("id"), req.MonthlyLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports(user.ID)
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.budgets.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports(user.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Budget deleted successfully"})
}
