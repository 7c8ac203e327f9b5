package services

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// ReportService orchestrates the aggregation reducers: it fetches the right
// transaction slice from the store and folds it in core.
type ReportService struct {
	store ReportStore
	now   func() time.Time
}

func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store, now: time.Now}
}

// Summary computes totals over the (optionally month-filtered) transaction
// set. CurrentMonthExpense is anchored to the wall-clock month on purpose:
// the filter affects totals and count, not it.
func (s *ReportService) Summary(ctx context.Context, userID string, month core.Month) (core.SummaryStats, error) {
	expenses, err := s.store.ListExpenses(ctx, userID, core.ExpenseFilter{MonthPrefix: month})
	if err != nil {
		return core.SummaryStats{}, err
	}
	return core.Summarize(expenses, core.MonthOf(s.now())), nil
}

// ByCategory breaks expense-type spending down per category, optionally
// restricted to one month.
func (s *ReportService) ByCategory(ctx context.Context, userID string, month core.Month) ([]core.CategoryTotal, error) {
	expenses, err := s.store.ListExpenses(ctx, userID, core.ExpenseFilter{
		TransactionType: core.TypeExpense,
		MonthPrefix:     month,
	})
	if err != nil {
		return nil, err
	}
	return core.GroupByCategory(expenses), nil
}

// MonthlyTrend returns per-month expense/income sums for the most recent
// months present in the data, oldest first.
func (s *ReportService) MonthlyTrend(ctx context.Context, userID string) ([]core.MonthFlow, error) {
	expenses, err := s.store.ListExpenses(ctx, userID, core.ExpenseFilter{})
	if err != nil {
		return nil, err
	}
	return core.MonthlyTrend(expenses, core.TrendMonths), nil
}

// BudgetAlerts evaluates every current-year budget against current-month
// spend. Budgets from past years are deliberately invisible here even when
// their category still has spend.
func (s *ReportService) BudgetAlerts(ctx context.Context, userID string) ([]core.BudgetAlert, error) {
	now := s.now().UTC()

	budgets, err := s.store.ListBudgets(ctx, userID, now.Year())
	if err != nil {
		return nil, err
	}
	spend, err := s.store.ListExpenses(ctx, userID, core.ExpenseFilter{
		TransactionType: core.TypeExpense,
		MonthPrefix:     core.MonthOf(now),
	})
	if err != nil {
		return nil, err
	}
	return core.EvaluateBudgets(budgets, spend), nil
}
