package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	var rem core.Reminder
	if err := decodeJSON(r, &rem); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.reminders.Create(r.Context(), user.ID, rem)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request, user core.User) {
	reminders, err := s.reminders.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reminders == nil {
		reminders = []core.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

func (s *Server) handleDueReminders(w http.ResponseWriter, r *http.Request, user core.User) {
	month, err := queryMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if month == "" {
		month = core.MonthOf(time.Now().UTC())
	}

	due, err := s.reminders.ListActiveDue(r.Context(), user.ID, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if due == nil {
		due = []core.Reminder{}
	}
	writeJSON(w, http.StatusOK, due)
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	rem, err := s.reminders.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	var patch core.ReminderPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.reminders.Update(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	if err := s.reminders.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Reminder deleted successfully"})
}

func (s *Server) handleExecuteReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	reminderID := r.PathValue("id")

	result, err := s.reminders.Execute(r.Context(), user.ID, reminderID, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports(user.ID)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "reminder executed",
		applog.FieldReminderID, reminderID,
		applog.FieldUserID, user.ID,
		applog.FieldExpenseID, result.TransactionID,
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReminderHistory(w http.ResponseWriter, r *http.Request, user core.User) {
	executions, err := s.reminders.History(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if executions == nil {
		executions = []core.ReminderExecution{}
	}
	writeJSON(w, http.StatusOK, executions)
}
