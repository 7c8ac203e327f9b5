package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
)

// MemoryStore is a map-backed drop-in for Repository, used by the memory
// backend and as the test double for the services. Semantics mirror the SQLite
// implementation, including the unique-period guard on executions.
type MemoryStore struct {
	mu         sync.Mutex
	users      []core.User
	sessions   map[string]core.Session
	expenses   []core.Expense
	budgets    []core.Budget
	names      map[core.Dimension][]core.NameRecord
	reminders  []core.Reminder
	executions []core.ReminderExecution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]core.Session),
		names: map[core.Dimension][]core.NameRecord{
			core.DimensionCategory: nil,
			core.DimensionPaidBy:   nil,
		},
	}
}

func (m *MemoryStore) Close() error { return nil }

// ---- users and sessions ----

func (m *MemoryStore) InsertUser(_ context.Context, u core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: user %s already exists", core.ErrConflict, u.Email)
		}
	}
	m.users = append(m.users, u)
	return nil
}

func (m *MemoryStore) UpdateUserProfile(_ context.Context, userID, name, picture string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.users {
		if m.users[i].ID == userID {
			m.users[i].Name = name
			m.users[i].Picture = picture
		}
	}
	return nil
}

func (m *MemoryStore) FindUserByEmail(_ context.Context, email string) (core.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return core.User{}, false, nil
}

func (m *MemoryStore) FindUserByID(_ context.Context, userID string) (core.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == userID {
			return u, true, nil
		}
	}
	return core.User{}, false, nil
}

func (m *MemoryStore) InsertSession(_ context.Context, s core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *MemoryStore) FindSession(_ context.Context, token string) (core.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	return s, ok, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// ---- expenses ----

func (m *MemoryStore) InsertExpense(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, e)
	return nil
}

func (m *MemoryStore) InsertExpenses(ctx context.Context, expenses []core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expenses = append(m.expenses, expenses...)
	return nil
}

func (m *MemoryStore) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.expenses {
		if e.ID == id && e.UserID == userID {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("%w: expense %s", core.ErrNotFound, id)
}

func (m *MemoryStore) ListExpenses(_ context.Context, userID string, f core.ExpenseFilter) ([]core.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Expense
	for _, e := range m.expenses {
		if e.UserID != userID {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.TransactionType != "" && e.TransactionType != f.TransactionType {
			continue
		}
		if f.DateFrom != "" && e.Date < f.DateFrom {
			continue
		}
		if f.DateTo != "" && e.Date > f.DateTo {
			continue
		}
		if f.MonthPrefix != "" && !strings.HasPrefix(e.Date, string(f.MonthPrefix)) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) ReplaceExpense(_ context.Context, e core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.expenses {
		if m.expenses[i].ID == e.ID && m.expenses[i].UserID == e.UserID {
			e.CreatedAt = m.expenses[i].CreatedAt
			m.expenses[i] = e
			return nil
		}
	}
	return fmt.Errorf("%w: expense %s", core.ErrNotFound, e.ID)
}

func (m *MemoryStore) DeleteExpense(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.expenses {
		if m.expenses[i].ID == id && m.expenses[i].UserID == userID {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: expense %s", core.ErrNotFound, id)
}

func (m *MemoryStore) CountExpenseRefs(_ context.Context, userID string, dim core.Dimension, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, e := range m.expenses {
		if e.UserID != userID {
			continue
		}
		switch dim {
		case core.DimensionCategory:
			if e.Category == name {
				n++
			}
		case core.DimensionPaidBy:
			if e.PaidBy == name {
				n++
			}
		}
	}
	return n, nil
}

func (m *MemoryStore) CountBudgetRefs(_ context.Context, userID, category string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.budgets {
		if b.UserID == userID && b.Category == category {
			n++
		}
	}
	return n, nil
}

// ---- budgets ----

func (m *MemoryStore) InsertBudget(_ context.Context, b core.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.budgets {
		if existing.UserID == b.UserID && existing.Category == b.Category && existing.Year == b.Year {
			return fmt.Errorf("%w: budget for category %q in %d already exists", core.ErrConflict, b.Category, b.Year)
		}
	}
	m.budgets = append(m.budgets, b)
	return nil
}

func (m *MemoryStore) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.budgets {
		if b.ID == id && b.UserID == userID {
			return b, nil
		}
	}
	return core.Budget{}, fmt.Errorf("%w: budget %s", core.ErrNotFound, id)
}

func (m *MemoryStore) ListBudgets(_ context.Context, userID string, year int) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if b.UserID != userID {
			continue
		}
		if year != 0 && b.Year != year {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *MemoryStore) UpdateBudgetLimit(_ context.Context, userID, id string, limit float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.budgets {
		if m.budgets[i].ID == id && m.budgets[i].UserID == userID {
			m.budgets[i].MonthlyLimit = limit
			return nil
		}
	}
	return fmt.Errorf("%w: budget %s", core.ErrNotFound, id)
}

func (m *MemoryStore) DeleteBudget(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.budgets {
		if m.budgets[i].ID == id && m.budgets[i].UserID == userID {
			m.budgets = append(m.budgets[:i], m.budgets[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: budget %s", core.ErrNotFound, id)
}

// ---- registries ----

func (m *MemoryStore) InsertName(_ context.Context, dim core.Dimension, rec core.NameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.names[dim] {
		if existing.UserID == rec.UserID && strings.EqualFold(existing.Name, rec.Name) {
			return fmt.Errorf("%w: %s %q already exists", core.ErrConflict, dim, rec.Name)
		}
	}
	m.names[dim] = append(m.names[dim], rec)
	return nil
}

func (m *MemoryStore) ListNames(_ context.Context, dim core.Dimension, userID string) ([]core.NameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.NameRecord
	for _, rec := range m.names[dim] {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (m *MemoryStore) GetName(_ context.Context, dim core.Dimension, userID, id string) (core.NameRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.names[dim] {
		if rec.ID == id && rec.UserID == userID {
			return rec, nil
		}
	}
	return core.NameRecord{}, fmt.Errorf("%w: %s %s", core.ErrNotFound, dim, id)
}

func (m *MemoryStore) FindNameFold(_ context.Context, dim core.Dimension, userID, name string) (core.NameRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.names[dim] {
		if rec.UserID == userID && strings.EqualFold(rec.Name, name) {
			return rec, true, nil
		}
	}
	return core.NameRecord{}, false, nil
}

func (m *MemoryStore) DeleteName(_ context.Context, dim core.Dimension, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.names[dim]
	for i := range recs {
		if recs[i].ID == id && recs[i].UserID == userID {
			m.names[dim] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s", core.ErrNotFound, dim, id)
}

// ---- reminders ----

func (m *MemoryStore) InsertReminder(_ context.Context, rem core.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = append(m.reminders, rem)
	return nil
}

func (m *MemoryStore) GetReminder(_ context.Context, userID, id string) (core.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rem := range m.reminders {
		if rem.ID == id && rem.UserID == userID {
			return rem, nil
		}
	}
	return core.Reminder{}, fmt.Errorf("%w: reminder %s", core.ErrNotFound, id)
}

func (m *MemoryStore) ListReminders(_ context.Context, userID string, activeOnly bool) ([]core.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Reminder
	for _, rem := range m.reminders {
		if rem.UserID != userID {
			continue
		}
		if activeOnly && !rem.IsActive {
			continue
		}
		out = append(out, rem)
	}
	return out, nil
}

func (m *MemoryStore) ReplaceReminder(_ context.Context, rem core.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reminders {
		if m.reminders[i].ID == rem.ID && m.reminders[i].UserID == rem.UserID {
			rem.CreatedAt = m.reminders[i].CreatedAt
			m.reminders[i] = rem
			return nil
		}
	}
	return fmt.Errorf("%w: reminder %s", core.ErrNotFound, rem.ID)
}

func (m *MemoryStore) DeleteReminder(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reminders {
		if m.reminders[i].ID == id && m.reminders[i].UserID == userID {
			m.reminders = append(m.reminders[:i], m.reminders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: reminder %s", core.ErrNotFound, id)
}

// ---- reminder executions ----

// RecordExecution appends the execution and its generated expense under one
// lock, rejecting a duplicate completed period the way the SQLite unique
// index does.
func (m *MemoryStore) RecordExecution(_ context.Context, exec core.ReminderExecution, generated core.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if exec.Status == core.ExecutionCompleted {
		for _, e := range m.executions {
			if e.ReminderID == exec.ReminderID && e.Year == exec.Year && e.Month == exec.Month && e.Status == core.ExecutionCompleted {
				return fmt.Errorf("%w: reminder already executed for %04d-%02d", core.ErrConflict, exec.Year, exec.Month)
			}
		}
	}
	m.executions = append(m.executions, exec)
	m.expenses = append(m.expenses, generated)
	return nil
}

func (m *MemoryStore) ListExecutions(_ context.Context, userID, reminderID string) ([]core.ReminderExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.ReminderExecution
	for _, e := range m.executions {
		if e.UserID == userID && e.ReminderID == reminderID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (m *MemoryStore) HasCompletedExecution(_ context.Context, reminderID string, year, month int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.executions {
		if e.ReminderID == reminderID && e.Year == year && e.Month == month && e.Status == core.ExecutionCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) CompletedReminderIDs(_ context.Context, userID string, year, month int) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]struct{})
	for _, e := range m.executions {
		if e.UserID == userID && e.Year == year && e.Month == month && e.Status == core.ExecutionCompleted {
			out[e.ReminderID] = struct{}{}
		}
	}
	return out, nil
}
