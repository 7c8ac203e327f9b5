package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

const testUser = "user_test00001"

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testExpense(id, date string) core.Expense {
	return core.Expense{
		ID:              id,
		UserID:          testUser,
		Date:            date,
		Category:        "Food",
		Description:     "lunch",
		Amount:          12.5,
		TransactionType: core.TypeExpense,
		PaymentMethod:   "Card",
		PaidBy:          "Alice",
		CreatedAt:       time.Now().UTC(),
	}
}

func TestRepositoryExpenseRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	want := testExpense("e1", "2025-02-10")
	want.Notes = "with colleagues"
	require.NoError(t, repo.InsertExpense(ctx, want))

	got, err := repo.GetExpense(ctx, testUser, "e1")
	require.NoError(t, err)
	assert.Equal(t, want.Date, got.Date)
	assert.Equal(t, want.Amount, got.Amount)
	assert.Equal(t, want.Notes, got.Notes)
	assert.WithinDuration(t, want.CreatedAt, got.CreatedAt, time.Second)

	_, err = repo.GetExpense(ctx, testUser, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = repo.GetExpense(ctx, "user_other", "e1")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryExpenseFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	jan := testExpense("e1", "2025-01-05")
	feb := testExpense("e2", "2025-02-10")
	feb.Category = "Transport"
	mar := testExpense("e3", "2025-03-20")
	income := testExpense("e4", "2025-02-15")
	income.TransactionType = core.TypeIncome
	income.Category = core.CreditCategory

	require.NoError(t, repo.InsertExpenses(ctx, []core.Expense{jan, feb, mar, income}))

	got, err := repo.ListExpenses(ctx, testUser, core.ExpenseFilter{Category: "Transport"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.ListExpenses(ctx, testUser, core.ExpenseFilter{TransactionType: core.TypeIncome})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.ListExpenses(ctx, testUser, core.ExpenseFilter{DateFrom: "2025-02-01", DateTo: "2025-02-28"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListExpenses(ctx, testUser, core.ExpenseFilter{MonthPrefix: "2025-02"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.ListExpenses(ctx, testUser, core.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "2025-03-20", got[0].Date)

	got, err = repo.ListExpenses(ctx, testUser, core.ExpenseFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRepositoryExpenseReplaceAndDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	exp := testExpense("e1", "2025-02-10")
	require.NoError(t, repo.InsertExpense(ctx, exp))

	exp.Amount = 42
	exp.Description = "dinner"
	require.NoError(t, repo.ReplaceExpense(ctx, exp))

	got, err := repo.GetExpense(ctx, testUser, "e1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got.Amount)
	assert.Equal(t, "dinner", got.Description)

	require.NoError(t, repo.DeleteExpense(ctx, testUser, "e1"))
	assert.ErrorIs(t, repo.DeleteExpense(ctx, testUser, "e1"), core.ErrNotFound)
}

func TestRepositoryBudgetUniqueness(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	b := core.Budget{ID: "b1", UserID: testUser, Category: "Food", MonthlyLimit: 500, Year: 2025, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.InsertBudget(ctx, b))

	dup := b
	dup.ID = "b2"
	assert.ErrorIs(t, repo.InsertBudget(ctx, dup), core.ErrConflict)

	otherYear := b
	otherYear.ID = "b3"
	otherYear.Year = 2026
	assert.NoError(t, repo.InsertBudget(ctx, otherYear))

	budgets, err := repo.ListBudgets(ctx, testUser, 2025)
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
	budgets, err = repo.ListBudgets(ctx, testUser, 0)
	require.NoError(t, err)
	assert.Len(t, budgets, 2)
}

func TestRepositoryRegistryCaseInsensitive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := core.NameRecord{ID: "c1", UserID: testUser, Name: "Food", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.InsertName(ctx, core.DimensionCategory, rec))

	dup := core.NameRecord{ID: "c2", UserID: testUser, Name: "FOOD", CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, repo.InsertName(ctx, core.DimensionCategory, dup), core.ErrConflict)

	found, ok, err := repo.FindNameFold(ctx, core.DimensionCategory, testUser, "food")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c1", found.ID)

	// Same name in the other dimension is fine.
	payer := core.NameRecord{ID: "p1", UserID: testUser, Name: "Food", CreatedAt: time.Now().UTC()}
	assert.NoError(t, repo.InsertName(ctx, core.DimensionPaidBy, payer))
}

func TestRepositoryCountRefs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertExpense(ctx, testExpense("e1", "2025-02-10")))

	n, err := repo.CountExpenseRefs(ctx, testUser, core.DimensionCategory, "Food")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.CountExpenseRefs(ctx, testUser, core.DimensionPaidBy, "Alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.CountExpenseRefs(ctx, testUser, core.DimensionCategory, "Transport")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	require.NoError(t, repo.InsertBudget(ctx, core.Budget{
		ID: "b1", UserID: testUser, Category: "Food", MonthlyLimit: 500, Year: 2025, CreatedAt: time.Now().UTC(),
	}))
	n, err = repo.CountBudgetRefs(ctx, testUser, "Food")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func testReminder(id string) core.Reminder {
	return core.Reminder{
		ID:            id,
		UserID:        testUser,
		Name:          "Rent",
		Amount:        900,
		Category:      "Housing",
		PaymentMethod: "Transfer",
		Frequency:     core.FrequencyMonthly,
		StartMonth:    "2025-01",
		EndMonth:      "2025-12",
		IsActive:      true,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestRepositoryReminderRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rem := testReminder("r1")
	require.NoError(t, repo.InsertReminder(ctx, rem))

	got, err := repo.GetReminder(ctx, testUser, "r1")
	require.NoError(t, err)
	assert.Equal(t, core.Month("2025-01"), got.StartMonth)
	assert.True(t, got.IsActive)

	inactive := testReminder("r2")
	inactive.IsActive = false
	require.NoError(t, repo.InsertReminder(ctx, inactive))

	all, err := repo.ListReminders(ctx, testUser, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	active, err := repo.ListReminders(ctx, testUser, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	rem.IsActive = false
	require.NoError(t, repo.ReplaceReminder(ctx, rem))
	active, err = repo.ListReminders(ctx, testUser, true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func execution(id, reminderID, txID string, year, month int) core.ReminderExecution {
	return core.ReminderExecution{
		ID:            id,
		ReminderID:    reminderID,
		UserID:        testUser,
		Year:          year,
		Month:         month,
		TransactionID: txID,
		ExecutedAt:    time.Now().UTC(),
		Status:        core.ExecutionCompleted,
	}
}

func TestRepositoryRecordExecutionAtomicity(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordExecution(ctx,
		execution("x1", "r1", "e1", 2025, 3),
		testExpense("e1", "2025-03-15"),
	))

	// A second completed execution for the same period aborts, and the
	// expense from the failed transaction never lands.
	err := repo.RecordExecution(ctx,
		execution("x2", "r1", "e2", 2025, 3),
		testExpense("e2", "2025-03-16"),
	)
	require.ErrorIs(t, err, core.ErrConflict)

	expenses, err := repo.ListExpenses(ctx, testUser, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, expenses, 1)

	execs, err := repo.ListExecutions(ctx, testUser, "r1")
	require.NoError(t, err)
	assert.Len(t, execs, 1)

	// Another period goes through.
	require.NoError(t, repo.RecordExecution(ctx,
		execution("x3", "r1", "e3", 2025, 4),
		testExpense("e3", "2025-04-15"),
	))

	done, err := repo.HasCompletedExecution(ctx, "r1", 2025, 3)
	require.NoError(t, err)
	assert.True(t, done)
	done, err = repo.HasCompletedExecution(ctx, "r1", 2025, 5)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRepositoryExecutionsSurviveReminderDelete(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertReminder(ctx, testReminder("r1")))
	require.NoError(t, repo.RecordExecution(ctx,
		execution("x1", "r1", "e1", 2025, 3),
		testExpense("e1", "2025-03-15"),
	))

	require.NoError(t, repo.DeleteReminder(ctx, testUser, "r1"))

	execs, err := repo.ListExecutions(ctx, testUser, "r1")
	require.NoError(t, err)
	assert.Len(t, execs, 1)
}

func TestRepositoryListExecutionsOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordExecution(ctx, execution("x1", "r1", "e1", 2024, 12), testExpense("e1", "2024-12-10")))
	require.NoError(t, repo.RecordExecution(ctx, execution("x2", "r1", "e2", 2025, 2), testExpense("e2", "2025-02-10")))
	require.NoError(t, repo.RecordExecution(ctx, execution("x3", "r1", "e3", 2025, 1), testExpense("e3", "2025-01-10")))

	execs, err := repo.ListExecutions(ctx, testUser, "r1")
	require.NoError(t, err)
	require.Len(t, execs, 3)
	assert.Equal(t, "x2", execs[0].ID)
	assert.Equal(t, "x3", execs[1].ID)
	assert.Equal(t, "x1", execs[2].ID)
}

func TestRepositoryCompletedReminderIDs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordExecution(ctx, execution("x1", "r1", "e1", 2025, 3), testExpense("e1", "2025-03-10")))
	require.NoError(t, repo.RecordExecution(ctx, execution("x2", "r2", "e2", 2025, 3), testExpense("e2", "2025-03-11")))
	require.NoError(t, repo.RecordExecution(ctx, execution("x3", "r3", "e3", 2025, 4), testExpense("e3", "2025-04-10")))

	ids, err := repo.CompletedReminderIDs(ctx, testUser, 2025, 3)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	_, ok := ids["r1"]
	assert.True(t, ok)
	_, ok = ids["r3"]
	assert.False(t, ok)
}

func TestRepositorySessions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u := core.User{ID: testUser, Email: "a@b.c", Name: "A", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.InsertUser(ctx, u))

	s := core.Session{
		UserID:    testUser,
		Token:     "tok1",
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.InsertSession(ctx, s))

	got, ok, err := repo.FindSession(ctx, "tok1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testUser, got.UserID)

	require.NoError(t, repo.DeleteSession(ctx, "tok1"))
	_, ok, err = repo.FindSession(ctx, "tok1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an unknown token is not an error.
	assert.NoError(t, repo.DeleteSession(ctx, "missing"))
}
