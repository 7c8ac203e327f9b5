package core

import (
	"math"
	"sort"
	"strings"
)

// Aggregation reducers. All of them are pure folds over a user's transaction
// slice; callers decide which slice to feed in (month-filtered or not).

const TrendMonths = 6

// Alert statuses derived from current-month spend against a budget limit.
const (
	AlertNormal   = "normal"
	AlertWarning  = "warning"
	AlertExceeded = "exceeded"
)

type SummaryStats struct {
	TotalExpense        float64 `json:"total_expense"`
	TotalIncome         float64 `json:"total_income"`
	Balance             float64 `json:"balance"`
	CurrentMonthExpense float64 `json:"current_month_expense"`
	TransactionCount    int     `json:"transaction_count"`
}

type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

type MonthFlow struct {
	Month   string  `json:"month"`
	Expense float64 `json:"expense"`
	Income  float64 `json:"income"`
}

type BudgetAlert struct {
	Category   string  `json:"category"`
	Limit      float64 `json:"limit"`
	Spent      float64 `json:"spent"`
	Remaining  float64 `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// Summarize folds a transaction slice into summary statistics. The slice may
// already be month-filtered; CurrentMonthExpense is nevertheless computed
// against currentMonth, the real wall-clock month, not the filter.
func Summarize(expenses []Expense, currentMonth Month) SummaryStats {
	var s SummaryStats
	prefix := string(currentMonth)
	for _, e := range expenses {
		switch e.TransactionType {
		case TypeExpense:
			s.TotalExpense += e.Amount
			if strings.HasPrefix(e.Date, prefix) {
				s.CurrentMonthExpense += e.Amount
			}
		case TypeIncome:
			s.TotalIncome += e.Amount
		}
	}
	s.Balance = s.TotalIncome - s.TotalExpense
	s.TransactionCount = len(expenses)
	return s
}

// GroupByCategory sums expense-type transactions per category. One entry per
// distinct category present; order is unspecified.
func GroupByCategory(expenses []Expense) []CategoryTotal {
	totals := make(map[string]float64)
	for _, e := range expenses {
		if e.TransactionType != TypeExpense {
			continue
		}
		totals[e.Category] += e.Amount
	}
	out := make([]CategoryTotal, 0, len(totals))
	for cat, total := range totals {
		out = append(out, CategoryTotal{Category: cat, Total: total})
	}
	return out
}

// MonthlyTrend groups transactions by their date's YYYY-MM prefix and returns
// the `limit` most recent distinct months present, in ascending chronological
// order. Fewer months than the limit yields all of them.
func MonthlyTrend(expenses []Expense, limit int) []MonthFlow {
	flows := make(map[string]*MonthFlow)
	for _, e := range expenses {
		if len(e.Date) < 7 {
			continue
		}
		month := e.Date[:7]
		f, ok := flows[month]
		if !ok {
			f = &MonthFlow{Month: month}
			flows[month] = f
		}
		if e.TransactionType == TypeExpense {
			f.Expense += e.Amount
		} else {
			f.Income += e.Amount
		}
	}

	months := make([]string, 0, len(flows))
	for m := range flows {
		months = append(months, m)
	}
	// Lexicographic order is chronological for YYYY-MM keys.
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	if len(months) > limit {
		months = months[:limit]
	}
	sort.Strings(months)

	out := make([]MonthFlow, 0, len(months))
	for _, m := range months {
		out = append(out, *flows[m])
	}
	return out
}

// EvaluateBudgets compares each budget against current-month spend in its
// category. Budgets with no matching spend still appear with Spent=0.
// currentMonthExpenses must already be filtered to expense-type transactions
// of the current month.
func EvaluateBudgets(budgets []Budget, currentMonthExpenses []Expense) []BudgetAlert {
	spending := make(map[string]float64)
	for _, e := range currentMonthExpenses {
		if e.TransactionType != TypeExpense {
			continue
		}
		spending[e.Category] += e.Amount
	}

	alerts := make([]BudgetAlert, 0, len(budgets))
	for _, b := range budgets {
		spent := spending[b.Category]
		var percentage float64
		if b.MonthlyLimit > 0 {
			percentage = spent / b.MonthlyLimit * 100
		}

		// Status is derived from the exact ratio; only the reported
		// percentage is rounded.
		status := AlertNormal
		switch {
		case percentage >= 100:
			status = AlertExceeded
		case percentage >= 80:
			status = AlertWarning
		}

		alerts = append(alerts, BudgetAlert{
			Category:   b.Category,
			Limit:      b.MonthlyLimit,
			Spent:      spent,
			Remaining:  math.Max(0, b.MonthlyLimit-spent),
			Percentage: math.Round(percentage*10) / 10,
			Status:     status,
		})
	}
	return alerts
}
