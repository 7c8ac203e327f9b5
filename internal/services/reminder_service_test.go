package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const testUser = "user_test00001"

func newReminderFixture(t *testing.T) (*ReminderService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewReminderService(store, nil), store
}

func rentReminder() core.Reminder {
	return core.Reminder{
		Name:          "Rent",
		Amount:        900,
		Category:      "Housing",
		PaymentMethod: "Transfer",
		StartMonth:    "2025-01",
		EndMonth:      "2025-12",
		IsActive:      true,
	}
}

func TestReminderExecuteGeneratesExpense(t *testing.T) {
	svc, store := newReminderFixture(t)
	ctx := context.Background()

	rem, err := svc.Create(ctx, testUser, rentReminder())
	require.NoError(t, err)

	asOf := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	result, err := svc.Execute(ctx, testUser, rem.ID, asOf)
	require.NoError(t, err)
	require.NotEmpty(t, result.TransactionID)
	require.NotEmpty(t, result.ExecutionID)

	exp, err := store.GetExpense(ctx, testUser, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", exp.Date)
	assert.Equal(t, "Rent", exp.Description)
	assert.Equal(t, 900.0, exp.Amount)
	assert.Equal(t, core.TypeExpense, exp.TransactionType)
	assert.Equal(t, "Housing", exp.Category)
	assert.Equal(t, "Auto-generated from reminder: Rent", exp.Notes)

	history, err := svc.History(ctx, testUser, rem.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, core.ExecutionCompleted, history[0].Status)
	assert.Equal(t, 2025, history[0].Year)
	assert.Equal(t, 3, history[0].Month)
	assert.Equal(t, result.TransactionID, history[0].TransactionID)
}

func TestReminderExecuteTwiceSamePeriodConflicts(t *testing.T) {
	svc, store := newReminderFixture(t)
	ctx := context.Background()

	rem, err := svc.Create(ctx, testUser, rentReminder())
	require.NoError(t, err)

	asOf := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	_, err = svc.Execute(ctx, testUser, rem.ID, asOf)
	require.NoError(t, err)

	_, err = svc.Execute(ctx, testUser, rem.ID, asOf.Add(48*time.Hour))
	require.ErrorIs(t, err, core.ErrConflict)

	// The duplicate attempt left no partial writes behind.
	expenses, err := store.ListExpenses(ctx, testUser, core.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, expenses, 1)
	history, err := svc.History(ctx, testUser, rem.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestReminderExecuteNextMonthSucceeds(t *testing.T) {
	svc, _ := newReminderFixture(t)
	ctx := context.Background()

	rem, err := svc.Create(ctx, testUser, rentReminder())
	require.NoError(t, err)

	_, err = svc.Execute(ctx, testUser, rem.ID, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = svc.Execute(ctx, testUser, rem.ID, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	history, err := svc.History(ctx, testUser, rem.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestReminderExecutePreconditions(t *testing.T) {
	svc, _ := newReminderFixture(t)
	ctx := context.Background()
	asOf := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.Execute(ctx, testUser, "missing", asOf)
	assert.ErrorIs(t, err, core.ErrNotFound)

	inactive := rentReminder()
	inactive.IsActive = false
	rem, err := svc.Create(ctx, testUser, inactive)
	require.NoError(t, err)
	_, err = svc.Execute(ctx, testUser, rem.ID, asOf)
	assert.ErrorIs(t, err, core.ErrInvalidState)

	narrow := rentReminder()
	narrow.StartMonth, narrow.EndMonth = "2025-06", "2025-08"
	rem, err = svc.Create(ctx, testUser, narrow)
	require.NoError(t, err)
	_, err = svc.Execute(ctx, testUser, rem.ID, asOf)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestListActiveDue(t *testing.T) {
	svc, _ := newReminderFixture(t)
	ctx := context.Background()
	asOf := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	executed := rentReminder()
	executed.Name = "Executed"
	remA, err := svc.Create(ctx, testUser, executed)
	require.NoError(t, err)
	_, err = svc.Execute(ctx, testUser, remA.ID, asOf)
	require.NoError(t, err)

	due := rentReminder()
	due.Name = "Due"
	remB, err := svc.Create(ctx, testUser, due)
	require.NoError(t, err)

	inactive := rentReminder()
	inactive.Name = "Inactive"
	inactive.IsActive = false
	_, err = svc.Create(ctx, testUser, inactive)
	require.NoError(t, err)

	outside := rentReminder()
	outside.Name = "Outside"
	outside.StartMonth, outside.EndMonth = "2025-06", "2025-09"
	_, err = svc.Create(ctx, testUser, outside)
	require.NoError(t, err)

	got, err := svc.ListActiveDue(ctx, testUser, core.MonthOf(asOf))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, remB.ID, got[0].ID)

	// Next month the executed reminder is due again.
	got, err = svc.ListActiveDue(ctx, testUser, "2025-04")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestReminderDeleteKeepsHistoryAndExpense(t *testing.T) {
	svc, store := newReminderFixture(t)
	ctx := context.Background()

	rem, err := svc.Create(ctx, testUser, rentReminder())
	require.NoError(t, err)

	result, err := svc.Execute(ctx, testUser, rem.ID, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, testUser, rem.ID))

	_, err = svc.Get(ctx, testUser, rem.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	history, err := svc.History(ctx, testUser, rem.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = store.GetExpense(ctx, testUser, result.TransactionID)
	assert.NoError(t, err)
}

func TestReminderHistoryOrder(t *testing.T) {
	svc, _ := newReminderFixture(t)
	ctx := context.Background()

	rem, err := svc.Create(ctx, testUser, rentReminder())
	require.NoError(t, err)

	for _, m := range []time.Month{time.January, time.March, time.February} {
		_, err = svc.Execute(ctx, testUser, rem.ID, time.Date(2025, m, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, testUser, rem.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Month)
	assert.Equal(t, 2, history[1].Month)
	assert.Equal(t, 1, history[2].Month)
}

func TestReminderUpdateMergedValidation(t *testing.T) {
	svc, _ := newReminderFixture(t)
	ctx := context.Background()

	rem, err := svc.Create(ctx, testUser, rentReminder())
	require.NoError(t, err)

	// Shrinking the end below the start fails even though the value itself
	// parses fine.
	bad := "2024-06"
	_, err = svc.Update(ctx, testUser, rem.ID, core.ReminderPatch{EndMonth: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidState)

	amount := 950.0
	updated, err := svc.Update(ctx, testUser, rem.ID, core.ReminderPatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 950.0, updated.Amount)
	assert.Equal(t, "Rent", updated.Name)

	_, err = svc.Update(ctx, testUser, rem.ID, core.ReminderPatch{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}
