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

// BudgetService manages per-category yearly budgets. Uniqueness of
// (user, category, year) is guarded by the store's unique index; the service
// just maps the conflict upward.
type BudgetService struct {
	store BudgetStore
	now   func() time.Time
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store, now: time.Now}
}

// Create registers a budget. A zero year means the current calendar year.
func (s *BudgetService) Create(ctx context.Context, userID, category string, monthlyLimit float64, year int) (core.Budget, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	b := core.Budget{
		ID:           uuid.NewString(),
		UserID:       userID,
		Category:     strings.TrimSpace(category),
		MonthlyLimit: monthlyLimit,
		Year:         year,
		CreatedAt:    time.Now().UTC(),
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	if err := s.store.InsertBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	slog.InfoContext(ctx, "Budget created",
		"id", b.ID,
		"category", b.Category,
		"year", b.Year,
		"monthly_limit", b.MonthlyLimit)
	return b, nil
}

func (s *BudgetService) List(ctx context.Context, userID string) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID, 0)
}

// UpdateLimit changes the monthly ceiling of an existing budget. Updating
// always succeeds for an existing budget; there is nothing else to conflict
// with.
func (s *BudgetService) UpdateLimit(ctx context.Context, userID, id string, monthlyLimit float64) (core.Budget, error) {
	if monthlyLimit <= 0 {
		return core.Budget{}, fmt.Errorf("%w: monthly limit must be positive", core.ErrInvalidInput)
	}
	if err := s.store.UpdateBudgetLimit(ctx, userID, id, monthlyLimit); err != nil {
		return core.Budget{}, err
	}
	return s.store.GetBudget(ctx, userID, id)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteBudget(ctx, userID, id)
}
