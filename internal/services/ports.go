package services

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// Store contracts consumed by the services. Both storage.Repository and
// storage.MemoryStore satisfy all of them.

type ExpenseStore interface {
	InsertExpense(ctx context.Context, e core.Expense) error
	InsertExpenses(ctx context.Context, expenses []core.Expense) error
	GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, userID string, f core.ExpenseFilter) ([]core.Expense, error)
	ReplaceExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, userID, id string) error
}

type BudgetStore interface {
	InsertBudget(ctx context.Context, b core.Budget) error
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string, year int) ([]core.Budget, error)
	UpdateBudgetLimit(ctx context.Context, userID, id string, limit float64) error
	DeleteBudget(ctx context.Context, userID, id string) error
}

type RegistryStore interface {
	InsertName(ctx context.Context, dim core.Dimension, rec core.NameRecord) error
	ListNames(ctx context.Context, dim core.Dimension, userID string) ([]core.NameRecord, error)
	GetName(ctx context.Context, dim core.Dimension, userID, id string) (core.NameRecord, error)
	FindNameFold(ctx context.Context, dim core.Dimension, userID, name string) (core.NameRecord, bool, error)
	DeleteName(ctx context.Context, dim core.Dimension, userID, id string) error
	CountExpenseRefs(ctx context.Context, userID string, dim core.Dimension, name string) (int64, error)
	CountBudgetRefs(ctx context.Context, userID, category string) (int64, error)
}

type ReminderStore interface {
	InsertReminder(ctx context.Context, rem core.Reminder) error
	GetReminder(ctx context.Context, userID, id string) (core.Reminder, error)
	ListReminders(ctx context.Context, userID string, activeOnly bool) ([]core.Reminder, error)
	ReplaceReminder(ctx context.Context, rem core.Reminder) error
	DeleteReminder(ctx context.Context, userID, id string) error
	RecordExecution(ctx context.Context, exec core.ReminderExecution, generated core.Expense) error
	ListExecutions(ctx context.Context, userID, reminderID string) ([]core.ReminderExecution, error)
	HasCompletedExecution(ctx context.Context, reminderID string, year, month int) (bool, error)
	CompletedReminderIDs(ctx context.Context, userID string, year, month int) (map[string]struct{}, error)
}

// ReportStore is the read surface the aggregation service needs.
type ReportStore interface {
	ListExpenses(ctx context.Context, userID string, f core.ExpenseFilter) ([]core.Expense, error)
	ListBudgets(ctx context.Context, userID string, year int) ([]core.Budget, error)
}

// EventPublisher fans ledger events out to downstream consumers. Implemented
// by *amqp.Client; services tolerate a nil publisher.
type EventPublisher interface {
	PublishExpenseRecorded(ctx context.Context, id, userID string) error
	PublishReminderExecuted(ctx context.Context, msg *amqp.ReminderExecutedMessage) error
}
