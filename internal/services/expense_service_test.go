package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func newExpenseFixture(t *testing.T) (*ExpenseService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewExpenseService(store, nil), store
}

func lunch() core.Expense {
	return core.Expense{
		Date:            "2025-02-10",
		Category:        "Food",
		Description:     "lunch",
		Amount:          12.5,
		TransactionType: core.TypeExpense,
		PaymentMethod:   "Card",
		PaidBy:          "Alice",
	}
}

func TestExpenseCreate(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testUser, lunch())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testUser, created.UserID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(ctx, testUser, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestExpenseIncomeForcesCreditCategory(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	income := lunch()
	income.TransactionType = core.TypeIncome
	income.Category = "Salary"

	created, err := svc.Create(ctx, testUser, income)
	require.NoError(t, err)
	assert.Equal(t, core.CreditCategory, created.Category)
}

func TestExpenseCreditCategoryReservedForIncome(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	bad := lunch()
	bad.Category = core.CreditCategory

	_, err := svc.Create(ctx, testUser, bad)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestExpenseUpdate(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testUser, lunch())
	require.NoError(t, err)

	_, err = svc.Update(ctx, testUser, created.ID, core.ExpensePatch{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	amount := 20.0
	updated, err := svc.Update(ctx, testUser, created.ID, core.ExpensePatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.Amount)
	assert.Equal(t, "lunch", updated.Description)

	// Switching to income drags the category along.
	income := core.TypeIncome
	updated, err = svc.Update(ctx, testUser, created.ID, core.ExpensePatch{TransactionType: &income})
	require.NoError(t, err)
	assert.Equal(t, core.CreditCategory, updated.Category)

	_, err = svc.Update(ctx, testUser, "missing", core.ExpensePatch{Amount: &amount})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExpenseDelete(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testUser, lunch())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, testUser, created.ID))

	_, err = svc.Get(ctx, testUser, created.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, testUser, created.ID), core.ErrNotFound)
}

func TestExpenseListFilters(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	a := lunch()
	a.Date = "2025-01-05"
	b := lunch()
	b.Date = "2025-02-10"
	b.Category = "Transport"
	c := lunch()
	c.Date = "2025-03-20"

	for _, e := range []core.Expense{a, b, c} {
		_, err := svc.Create(ctx, testUser, e)
		require.NoError(t, err)
	}

	got, err := svc.List(ctx, testUser, core.ExpenseFilter{Category: "Transport"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.List(ctx, testUser, core.ExpenseFilter{DateFrom: "2025-02-01", DateTo: "2025-02-28"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2025-02-10", got[0].Date)

	// Most recent date first.
	got, err = svc.List(ctx, testUser, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-03-20", got[0].Date)

	got, err = svc.List(ctx, testUser, core.ExpenseFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExpenseListScopedToUser(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, testUser, lunch())
	require.NoError(t, err)

	got, err := svc.List(ctx, "user_other", core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpenseImportScreensRows(t *testing.T) {
	svc, _ := newExpenseFixture(t)
	ctx := context.Background()

	rows := []core.Expense{
		lunch(), // valid
		{Date: "", Description: "no date", Amount: 5, TransactionType: core.TypeExpense, PaymentMethod: "Card", PaidBy: "Alice"},
		{Date: "2025-02-11", Description: "", Amount: 5, TransactionType: core.TypeExpense, PaymentMethod: "Card", PaidBy: "Alice"},
		{Date: "2025-02-12", Description: "zero", Amount: 0, TransactionType: core.TypeExpense, PaymentMethod: "Card", PaidBy: "Alice"},
		{Date: "2025-02-13", Description: "no method", Amount: 5, TransactionType: core.TypeExpense, PaymentMethod: "", PaidBy: "Alice"},
		{Date: "2025-02-14", Description: "no payer", Amount: 5, TransactionType: core.TypeExpense, PaymentMethod: "Card", PaidBy: "  "},
		{Date: "2025-02-15", Description: "ok too", Amount: 7, TransactionType: core.TypeExpense, PaymentMethod: "Cash", PaidBy: "Bob"},
	}

	imported, err := svc.Import(ctx, testUser, rows)
	require.NoError(t, err)
	require.Len(t, imported, 2)

	stored, err := svc.List(ctx, testUser, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
