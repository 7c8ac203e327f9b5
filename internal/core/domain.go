package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	TypeExpense = "expense"
	TypeIncome  = "income"

	// CreditCategory is the category stored on every income transaction,
	// regardless of what the caller supplied.
	CreditCategory = "Credit"

	FrequencyMonthly = "monthly"

	ExecutionCompleted = "completed"
	ExecutionReverted  = "reverted"
)

// Dimension names a registry of free-text values that transactions reference.
type Dimension string

const (
	DimensionCategory Dimension = "category"
	DimensionPaidBy   Dimension = "paid_by"
)

type (
	// Month is a calendar month in YYYY-MM form. The textual form sorts
	// lexicographically in chronological order, so Months compare with the
	// ordinary string operators.
	Month string

	User struct {
		ID        string    `json:"user_id"`
		Email     string    `json:"email"`
		Name      string    `json:"name"`
		Picture   string    `json:"picture,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Session struct {
		UserID    string    `json:"user_id"`
		Token     string    `json:"session_token"`
		ExpiresAt time.Time `json:"expires_at"`
		CreatedAt time.Time `json:"created_at"`
	}

	Expense struct {
		ID              string    `json:"id"`
		UserID          string    `json:"user_id"`
		Date            string    `json:"date"` // YYYY-MM-DD
		Category        string    `json:"category"`
		Description     string    `json:"description"`
		Amount          float64   `json:"amount"`
		TransactionType string    `json:"transaction_type"`
		PaymentMethod   string    `json:"payment_method"`
		PaidBy          string    `json:"paid_by,omitempty"`
		Notes           string    `json:"notes,omitempty"`
		CreatedAt       time.Time `json:"created_at"`
	}

	Budget struct {
		ID           string    `json:"id"`
		UserID       string    `json:"user_id"`
		Category     string    `json:"category"`
		MonthlyLimit float64   `json:"monthly_limit"`
		Year         int       `json:"year"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// NameRecord is one registered value of a Dimension (a category or a
	// payer). Categories and payers share shape and rules; the dimension
	// tells them apart in the store.
	NameRecord struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Reminder is a template for a recurring monthly obligation. It never
	// represents a transaction itself; executions do.
	Reminder struct {
		ID            string    `json:"id"`
		UserID        string    `json:"user_id"`
		Name          string    `json:"name"`
		Amount        float64   `json:"amount"`
		Category      string    `json:"category"`
		PaidBy        string    `json:"paid_by,omitempty"`
		PaymentMethod string    `json:"payment_method"`
		Frequency     string    `json:"frequency"`
		StartMonth    Month     `json:"start_month"`
		EndMonth      Month     `json:"end_month"`
		IsActive      bool      `json:"is_active"`
		CreatedAt     time.Time `json:"created_at"`
	}

	// ReminderExecution is one append-only audit row: reminder X produced
	// transaction Y for period (year, month). Rows outlive their reminder.
	ReminderExecution struct {
		ID            string    `json:"id"`
		ReminderID    string    `json:"reminder_id"`
		UserID        string    `json:"user_id"`
		Year          int       `json:"year"`
		Month         int       `json:"month"`
		TransactionID string    `json:"transaction_id"`
		ExecutedAt    time.Time `json:"executed_at"`
		Status        string    `json:"status"`
	}
)

// ParseMonth validates and returns a Month from its YYYY-MM text form.
func ParseMonth(s string) (Month, error) {
	if _, err := time.Parse("2006-01", s); err != nil {
		return "", fmt.Errorf("%w: month %q must be in YYYY-MM format", ErrInvalidInput, s)
	}
	return Month(s), nil
}

// MonthOf returns the calendar month containing t, in UTC.
func MonthOf(t time.Time) Month {
	return Month(t.UTC().Format("2006-01"))
}

// Parts splits a Month into its numeric year and month.
func (m Month) Parts() (year, month int) {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return 0, 0
	}
	return t.Year(), int(t.Month())
}

func (m Month) String() string { return string(m) }

// ParseDate validates a transaction date in YYYY-MM-DD form.
func ParseDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%w: date %q must be in YYYY-MM-DD format", ErrInvalidInput, s)
	}
	return nil
}

// ParseTimestamp normalizes a persisted timestamp. Historical rows carry bare
// ISO-8601 strings without an offset while fresh rows are RFC 3339; both are
// accepted.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatTimestamp renders a timestamp the way it is persisted.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (e Expense) Validate() error {
	if err := ParseDate(e.Date); err != nil {
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidInput)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if e.TransactionType != TypeExpense && e.TransactionType != TypeIncome {
		return fmt.Errorf("%w: transaction type must be %q or %q", ErrInvalidInput, TypeExpense, TypeIncome)
	}
	if strings.TrimSpace(e.PaymentMethod) == "" {
		return fmt.Errorf("%w: empty payment method", ErrInvalidInput)
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return fmt.Errorf("%w: empty category", ErrInvalidInput)
	}
	if b.MonthlyLimit <= 0 {
		return fmt.Errorf("%w: monthly limit must be positive", ErrInvalidInput)
	}
	if b.Year < 1970 || b.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidInput, b.Year)
	}
	return nil
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidInput)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: empty category", ErrInvalidInput)
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return fmt.Errorf("%w: empty payment method", ErrInvalidInput)
	}
	if r.Frequency != FrequencyMonthly {
		return fmt.Errorf("%w: unsupported frequency %q", ErrInvalidInput, r.Frequency)
	}
	if _, err := ParseMonth(string(r.StartMonth)); err != nil {
		return err
	}
	if _, err := ParseMonth(string(r.EndMonth)); err != nil {
		return err
	}
	if r.StartMonth > r.EndMonth {
		return fmt.Errorf("%w: start month %s is after end month %s", ErrInvalidState, r.StartMonth, r.EndMonth)
	}
	return nil
}

// InWindow reports whether m falls inside the reminder's active window.
func (r Reminder) InWindow(m Month) bool {
	return r.StartMonth <= m && m <= r.EndMonth
}
