package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	var exp core.Expense
	if err := decodeJSON(r, &exp); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.expenses.Create(r.Context(), user.ID, exp)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports(user.ID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "expense created",
		applog.FieldExpenseID, created.ID,
		applog.FieldUserID, user.ID,
	)
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, user core.User) {
	q := r.URL.Query()
	filter := core.ExpenseFilter{
		Category:        strings.TrimSpace(q.Get("category")),
		TransactionType: strings.TrimSpace(q.Get("transaction_type")),
		DateFrom:        strings.TrimSpace(q.Get("date_from")),
		DateTo:          strings.TrimSpace(q.Get("date_to")),
		Limit:           queryInt(r, "limit", 1000),
	}

	expenses, err := s.expenses.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	exp, err := s.expenses.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	var patch core.ExpensePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.expenses.Update(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports(user.ID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.expenses.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports(user.ID)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Expense deleted successfully"})
}

// bulkImportRequest keeps rows raw so one malformed row cannot fail the
// batch; decodeBulkRow screens them one by one.
type bulkImportRequest struct {
	Expenses []json.RawMessage `json:"expenses"`
}

type bulkImportResponse struct {
	Imported []core.Expense `json:"imported"`
	Count    int            `json:"count"`
}

// decodeBulkRow decodes a single candidate row. Amounts arrive from exports
// as numbers or numeric strings; anything unparsable discards the row.
func decodeBulkRow(raw json.RawMessage) (core.Expense, bool) {
	var row struct {
		Date            string          `json:"date"`
		Category        string          `json:"category"`
		Description     string          `json:"description"`
		Amount          json.RawMessage `json:"amount"`
		TransactionType string          `json:"transaction_type"`
		PaymentMethod   string          `json:"payment_method"`
		PaidBy          string          `json:"paid_by"`
		Notes           string          `json:"notes"`
	}
	if err := json.Unmarshal(raw, &row); err != nil {
		return core.Expense{}, false
	}
	amount, ok := parseBulkAmount(row.Amount)
	if !ok {
		return core.Expense{}, false
	}
	return core.Expense{
		Date:            row.Date,
		Category:        row.Category,
		Description:     row.Description,
		Amount:          amount,
		TransactionType: row.TransactionType,
		PaymentMethod:   row.PaymentMethod,
		PaidBy:          row.PaidBy,
		Notes:           row.Notes,
	}, true
}

func parseBulkAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (s *Server) handleBulkImport(w http.ResponseWriter, r *http.Request, user core.User) {
	var req bulkImportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	candidates := make([]core.Expense, 0, len(req.Expenses))
	for _, raw := range req.Expenses {
		if row, ok := decodeBulkRow(raw); ok {
			candidates = append(candidates, row)
		}
	}

	imported, err := s.expenses.Import(r.Context(), user.ID, candidates)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if imported == nil {
		imported = []core.Expense{}
	}

	s.invalidateReports(user.ID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "bulk import completed",
		applog.FieldUserID, user.ID,
		"submitted", len(req.Expenses),
		"imported", len(imported),
	)
	writeJSON(w, http.StatusOK, bulkImportResponse{Imported: imported, Count: len(imported)})
}
