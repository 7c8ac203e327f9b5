package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// ExpenseService owns transaction writes: single creates, sparse updates,
// deletes and bulk ingestion. Every write runs through normalization so the
// income/Credit invariant holds unconditionally.
type ExpenseService struct {
	store  ExpenseStore
	events EventPublisher
}

func NewExpenseService(store ExpenseStore, events EventPublisher) *ExpenseService {
	return &ExpenseService{store: store, events: events}
}

// normalizeExpense enforces the category invariant: income transactions
// always store the Credit category, and Credit is reserved for income.
func normalizeExpense(e *core.Expense) error {
	e.Description = strings.TrimSpace(e.Description)
	e.Category = strings.TrimSpace(e.Category)
	e.PaidBy = strings.TrimSpace(e.PaidBy)
	if e.TransactionType == core.TypeIncome {
		e.Category = core.CreditCategory
		return nil
	}
	if strings.EqualFold(e.Category, core.CreditCategory) {
		return fmt.Errorf("%w: category %q is reserved for income transactions", core.ErrInvalidInput, core.CreditCategory)
	}
	return nil
}

func (s *ExpenseService) Create(ctx context.Context, userID string, e core.Expense) (core.Expense, error) {
	e.ID = uuid.NewString()
	e.UserID = userID
	e.CreatedAt = time.Now().UTC()

	if err := normalizeExpense(&e); err != nil {
		return core.Expense{}, err
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"id", e.ID,
		"type", e.TransactionType,
		"category", e.Category,
		"amount", e.Amount)

	s.publishRecorded(ctx, e.ID, userID)
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) List(ctx context.Context, userID string, f core.ExpenseFilter) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, userID, f)
}

// Update applies a sparse patch. Validation runs against the merged record,
// and normalization re-runs so a type change cannot smuggle the wrong
// category past the invariant.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, patch core.ExpensePatch) (core.Expense, error) {
	if patch.IsEmpty() {
		return core.Expense{}, fmt.Errorf("%w: no fields to update", core.ErrInvalidInput)
	}

	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}

	if patch.Date != nil {
		e.Date = *patch.Date
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.TransactionType != nil {
		e.TransactionType = *patch.TransactionType
	}
	if patch.PaymentMethod != nil {
		e.PaymentMethod = *patch.PaymentMethod
	}
	if patch.PaidBy != nil {
		e.PaidBy = *patch.PaidBy
	}
	if patch.Notes != nil {
		e.Notes = *patch.Notes
	}

	if err := normalizeExpense(&e); err != nil {
		return core.Expense{}, err
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.ReplaceExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteExpense(ctx, userID, id)
}

// Import ingests a batch of candidate rows. Rows failing validation are
// silently discarded rather than failing the batch; the returned slice holds
// only the accepted rows, fully normalized and persisted.
func (s *ExpenseService) Import(ctx context.Context, userID string, rows []core.Expense) ([]core.Expense, error) {
	accepted := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		row.ID = uuid.NewString()
		row.UserID = userID
		row.CreatedAt = time.Now().UTC()
		if !importable(row) {
			continue
		}
		if err := normalizeExpense(&row); err != nil {
			continue
		}
		if err := row.Validate(); err != nil {
			continue
		}
		accepted = append(accepted, row)
	}

	if len(accepted) > 0 {
		if err := s.store.InsertExpenses(ctx, accepted); err != nil {
			return nil, fmt.Errorf("save imported expenses: %w", err)
		}
	}

	slog.InfoContext(ctx, "Bulk expense import",
		"candidates", len(rows),
		"accepted", len(accepted),
		"discarded", len(rows)-len(accepted))

	for _, e := range accepted {
		s.publishRecorded(ctx, e.ID, userID)
	}
	return accepted, nil
}

// importable applies the stricter bulk-ingestion screen: unlike single
// creates, a batch row must name its payer.
func importable(e core.Expense) bool {
	if strings.TrimSpace(e.Date) == "" || strings.TrimSpace(e.Description) == "" {
		return false
	}
	if e.Amount <= 0 {
		return false
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return false
	}
	return strings.TrimSpace(e.PaidBy) != ""
}

func (s *ExpenseService) publishRecorded(ctx context.Context, id, userID string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpenseRecorded(ctx, id, userID); err != nil {
		// Don't fail the request, the expense is already persisted.
		slog.ErrorContext(ctx, "Failed to publish expense event", "id", id, "error", err)
	}
}
