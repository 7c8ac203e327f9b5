package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

// ReminderService is the recurring-obligation engine: it decides which
// monthly templates are due, executes each at most once per calendar period,
// and keeps the execution audit trail alive past template deletion.
//
// Execution is always caller-triggered; there is no background scheduler.
type ReminderService struct {
	store  ReminderStore
	events EventPublisher
}

func NewReminderService(store ReminderStore, events EventPublisher) *ReminderService {
	return &ReminderService{store: store, events: events}
}

// ExecutionResult links the two records one execution produces.
type ExecutionResult struct {
	TransactionID string `json:"transaction_id"`
	ExecutionID   string `json:"execution_id"`
}

func (s *ReminderService) Create(ctx context.Context, userID string, rem core.Reminder) (core.Reminder, error) {
	rem.ID = uuid.NewString()
	rem.UserID = userID
	rem.Name = strings.TrimSpace(rem.Name)
	if rem.Frequency == "" {
		rem.Frequency = core.FrequencyMonthly
	}
	rem.CreatedAt = time.Now().UTC()

	if err := rem.Validate(); err != nil {
		return core.Reminder{}, err
	}
	if err := s.store.InsertReminder(ctx, rem); err != nil {
		return core.Reminder{}, fmt.Errorf("save reminder: %w", err)
	}

	slog.InfoContext(ctx, "Reminder created",
		"id", rem.ID,
		"name", rem.Name,
		"window", string(rem.StartMonth)+".."+string(rem.EndMonth))
	return rem, nil
}

func (s *ReminderService) Get(ctx context.Context, userID, id string) (core.Reminder, error) {
	return s.store.GetReminder(ctx, userID, id)
}

func (s *ReminderService) List(ctx context.Context, userID string) ([]core.Reminder, error) {
	return s.store.ListReminders(ctx, userID, false)
}

// ListActiveDue returns the active reminders whose window contains asOfMonth
// and which have no completed execution for that period: all in-window active
// templates minus the already-executed set.
func (s *ReminderService) ListActiveDue(ctx context.Context, userID string, asOfMonth core.Month) ([]core.Reminder, error) {
	active, err := s.store.ListReminders(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	year, month := asOfMonth.Parts()
	executed, err := s.store.CompletedReminderIDs(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	due := make([]core.Reminder, 0, len(active))
	for _, rem := range active {
		if !rem.InWindow(asOfMonth) {
			continue
		}
		if _, done := executed[rem.ID]; done {
			continue
		}
		due = append(due, rem)
	}
	return due, nil
}

// Execute instantiates a reminder for asOf's calendar period, producing
// exactly one expense and one completed execution row, linked by transaction
// id. Preconditions are checked in order; each failure is a distinct kind.
//
// The prior-execution query is advisory: the store's unique period constraint
// is the authoritative guard, and both inserts share one transaction, so a
// racing duplicate gets Conflict and writes nothing.
func (s *ReminderService) Execute(ctx context.Context, userID, reminderID string, asOf time.Time) (ExecutionResult, error) {
	rem, err := s.store.GetReminder(ctx, userID, reminderID)
	if err != nil {
		return ExecutionResult{}, err
	}
	if !rem.IsActive {
		return ExecutionResult{}, fmt.Errorf("%w: reminder %q is not active", core.ErrInvalidState, rem.Name)
	}

	asOf = asOf.UTC()
	asOfMonth := core.MonthOf(asOf)
	if !rem.InWindow(asOfMonth) {
		return ExecutionResult{}, fmt.Errorf("%w: %s is outside the reminder window %s..%s",
			core.ErrInvalidState, asOfMonth, rem.StartMonth, rem.EndMonth)
	}

	year, month := asOfMonth.Parts()
	done, err := s.store.HasCompletedExecution(ctx, reminderID, year, month)
	if err != nil {
		return ExecutionResult{}, err
	}
	if done {
		return ExecutionResult{}, fmt.Errorf("%w: reminder already executed for %s", core.ErrConflict, asOfMonth)
	}

	expense := core.Expense{
		ID:              uuid.NewString(),
		UserID:          userID,
		Date:            asOf.Format("2006-01-02"),
		Category:        rem.Category,
		Description:     rem.Name,
		Amount:          rem.Amount,
		TransactionType: core.TypeExpense,
		PaymentMethod:   rem.PaymentMethod,
		PaidBy:          rem.PaidBy,
		Notes:           "Auto-generated from reminder: " + rem.Name,
		CreatedAt:       time.Now().UTC(),
	}
	exec := core.ReminderExecution{
		ID:            uuid.NewString(),
		ReminderID:    rem.ID,
		UserID:        userID,
		Year:          year,
		Month:         month,
		TransactionID: expense.ID,
		ExecutedAt:    time.Now().UTC(),
		Status:        core.ExecutionCompleted,
	}

	if err := s.store.RecordExecution(ctx, exec, expense); err != nil {
		return ExecutionResult{}, err
	}

	slog.InfoContext(ctx, "Reminder executed",
		"reminder_id", rem.ID,
		"name", rem.Name,
		"period", string(asOfMonth),
		"transaction_id", expense.ID)

	if s.events != nil {
		msg := &amqp.ReminderExecutedMessage{
			ExecutionID:   exec.ID,
			ReminderID:    rem.ID,
			UserID:        userID,
			Year:          year,
			Month:         month,
			TransactionID: expense.ID,
		}
		if err := s.events.PublishReminderExecuted(ctx, msg); err != nil {
			// Execution is already committed; the event is best-effort.
			slog.ErrorContext(ctx, "Failed to publish execution event",
				"reminder_id", rem.ID, "error", err)
		}
	}

	return ExecutionResult{TransactionID: expense.ID, ExecutionID: exec.ID}, nil
}

// Update applies a sparse patch to a reminder. Month bounds are validated
// against the merged record, not the changed field alone: shrinking one end
// past the other fails even when the supplied value parses fine.
func (s *ReminderService) Update(ctx context.Context, userID, id string, patch core.ReminderPatch) (core.Reminder, error) {
	if patch.IsEmpty() {
		return core.Reminder{}, fmt.Errorf("%w: no fields to update", core.ErrInvalidInput)
	}

	rem, err := s.store.GetReminder(ctx, userID, id)
	if err != nil {
		return core.Reminder{}, err
	}

	if patch.Name != nil {
		rem.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Amount != nil {
		rem.Amount = *patch.Amount
	}
	if patch.Category != nil {
		rem.Category = *patch.Category
	}
	if patch.PaidBy != nil {
		rem.PaidBy = *patch.PaidBy
	}
	if patch.PaymentMethod != nil {
		rem.PaymentMethod = *patch.PaymentMethod
	}
	if patch.StartMonth != nil {
		m, err := core.ParseMonth(*patch.StartMonth)
		if err != nil {
			return core.Reminder{}, err
		}
		rem.StartMonth = m
	}
	if patch.EndMonth != nil {
		m, err := core.ParseMonth(*patch.EndMonth)
		if err != nil {
			return core.Reminder{}, err
		}
		rem.EndMonth = m
	}
	if patch.IsActive != nil {
		rem.IsActive = *patch.IsActive
	}

	if err := rem.Validate(); err != nil {
		return core.Reminder{}, err
	}
	if err := s.store.ReplaceReminder(ctx, rem); err != nil {
		return core.Reminder{}, err
	}
	return rem, nil
}

// Delete removes the template only. Execution rows are retained permanently;
// History keeps answering for deleted reminders.
func (s *ReminderService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteReminder(ctx, userID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Reminder deleted", "id", id)
	return nil
}

// History returns every execution row for a reminder, most recent period
// first. The parent template may already be gone.
func (s *ReminderService) History(ctx context.Context, userID, reminderID string) ([]core.ReminderExecution, error) {
	return s.store.ListExecutions(ctx, userID, reminderID)
}
