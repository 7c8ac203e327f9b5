package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed ledger store. Every query is scoped by
// user_id; cross-user reads are structurally impossible through this API.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// isUniqueViolation detects a unique-index hit from the driver. The unique
// indexes are the store-level guards behind the Conflict error kind.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---- users and sessions ----

func (r *Repository) InsertUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, email, name, picture, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Picture, core.FormatTimestamp(u.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s already exists", core.ErrConflict, u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) UpdateUserProfile(ctx context.Context, userID, name, picture string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, picture = ? WHERE user_id = ?`, name, picture, userID)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (core.User, bool, error) {
	return r.findUser(ctx, `SELECT user_id, email, name, picture, created_at FROM users WHERE email = ?`, email)
}

func (r *Repository) FindUserByID(ctx context.Context, userID string) (core.User, bool, error) {
	return r.findUser(ctx, `SELECT user_id, email, name, picture, created_at FROM users WHERE user_id = ?`, userID)
}

func (r *Repository) findUser(ctx context.Context, query string, arg any) (core.User, bool, error) {
	var (
		u         core.User
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, false, nil
	}
	if err != nil {
		return core.User{}, false, fmt.Errorf("find user: %w", err)
	}
	if u.CreatedAt, err = core.ParseTimestamp(createdAt); err != nil {
		return core.User{}, false, err
	}
	return u, true, nil
}

func (r *Repository) InsertSession(ctx context.Context, s core.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (session_token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, core.FormatTimestamp(s.ExpiresAt), core.FormatTimestamp(s.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *Repository) FindSession(ctx context.Context, token string) (core.Session, bool, error) {
	var (
		s                    core.Session
		expiresAt, createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT session_token, user_id, expires_at, created_at FROM sessions WHERE session_token = ?`, token).
		Scan(&s.Token, &s.UserID, &expiresAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, false, nil
	}
	if err != nil {
		return core.Session{}, false, fmt.Errorf("find session: %w", err)
	}
	if s.ExpiresAt, err = core.ParseTimestamp(expiresAt); err != nil {
		return core.Session{}, false, err
	}
	if s.CreatedAt, err = core.ParseTimestamp(createdAt); err != nil {
		return core.Session{}, false, err
	}
	return s, true, nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ---- expenses ----

const expenseColumns = `id, user_id, date, category, description, amount, transaction_type, payment_method, paid_by, notes, created_at`

func (r *Repository) InsertExpense(ctx context.Context, e core.Expense) error {
	return r.insertExpense(ctx, r.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *Repository) insertExpense(ctx context.Context, db execer, e core.Expense) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Date, e.Category, e.Description, e.Amount,
		e.TransactionType, e.PaymentMethod, e.PaidBy, e.Notes, core.FormatTimestamp(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// InsertExpenses writes a batch in one transaction. The batch is all-or-nothing
// at the store level; row-level screening happens before it is called.
func (r *Repository) InsertExpenses(ctx context.Context, expenses []core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk insert: %w", err)
	}
	defer tx.Rollback()

	for _, e := range expenses {
		if err := r.insertExpense(ctx, tx, e); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk insert: %w", err)
	}
	return nil
}

func (r *Repository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("%w: expense %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, userID string, f core.ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ?`
	args := []any{userID}

	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.TransactionType != "" {
		query += ` AND transaction_type = ?`
		args = append(args, f.TransactionType)
	}
	if f.DateFrom != "" {
		query += ` AND date >= ?`
		args = append(args, f.DateFrom)
	}
	if f.DateTo != "" {
		query += ` AND date <= ?`
		args = append(args, f.DateTo)
	}
	if f.MonthPrefix != "" {
		// YYYY-MM prefix match on the date string
		query += ` AND date LIKE ?`
		args = append(args, string(f.MonthPrefix)+"%")
	}
	query += ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) ReplaceExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, category = ?, description = ?, amount = ?,
		 transaction_type = ?, payment_method = ?, paid_by = ?, notes = ?
		 WHERE id = ? AND user_id = ?`,
		e.Date, e.Category, e.Description, e.Amount,
		e.TransactionType, e.PaymentMethod, e.PaidBy, e.Notes, e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireMatch(res, "expense "+e.ID)
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireMatch(res, "expense "+id)
}

// CountExpenseRefs counts expenses referencing a registry name through the
// given dimension's column.
func (r *Repository) CountExpenseRefs(ctx context.Context, userID string, dim core.Dimension, name string) (int64, error) {
	column, err := dimensionExpenseColumn(dim)
	if err != nil {
		return 0, err
	}
	var n int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE user_id = ? AND `+column+` = ?`, userID, name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expense refs: %w", err)
	}
	return n, nil
}

func (r *Repository) CountBudgetRefs(ctx context.Context, userID, category string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budgets WHERE user_id = ? AND category = ?`, userID, category).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count budget refs: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e         core.Expense
		createdAt string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Category, &e.Description, &e.Amount,
		&e.TransactionType, &e.PaymentMethod, &e.PaidBy, &e.Notes, &createdAt)
	if err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = core.ParseTimestamp(createdAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ---- budgets ----

const budgetColumns = `id, user_id, category, monthly_limit, year, created_at`

func (r *Repository) InsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.MonthlyLimit, b.Year, core.FormatTimestamp(b.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: budget for category %q in %d already exists", core.ErrConflict, b.Category, b.Year)
		}
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("%w: budget %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// ListBudgets returns the user's budgets; year 0 means every year.
func (r *Repository) ListBudgets(ctx context.Context, userID string, year int) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ?`
	args := []any{userID}
	if year != 0 {
		query += ` AND year = ?`
		args = append(args, year)
	}
	query += ` ORDER BY year DESC, category ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateBudgetLimit(ctx context.Context, userID, id string, limit float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET monthly_limit = ? WHERE id = ? AND user_id = ?`, limit, id, userID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireMatch(res, "budget "+id)
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireMatch(res, "budget "+id)
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b         core.Budget
		createdAt string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.MonthlyLimit, &b.Year, &createdAt)
	if err != nil {
		return core.Budget{}, err
	}
	if b.CreatedAt, err = core.ParseTimestamp(createdAt); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

// ---- category / payer registries ----

func dimensionTable(dim core.Dimension) (string, error) {
	switch dim {
	case core.DimensionCategory:
		return "categories", nil
	case core.DimensionPaidBy:
		return "paid_by", nil
	default:
		return "", fmt.Errorf("unknown dimension: %s", dim)
	}
}

func dimensionExpenseColumn(dim core.Dimension) (string, error) {
	switch dim {
	case core.DimensionCategory:
		return "category", nil
	case core.DimensionPaidBy:
		return "paid_by", nil
	default:
		return "", fmt.Errorf("unknown dimension: %s", dim)
	}
}

func (r *Repository) InsertName(ctx context.Context, dim core.Dimension, rec core.NameRecord) error {
	table, err := dimensionTable(dim)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Name, core.FormatTimestamp(rec.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %q already exists", core.ErrConflict, dim, rec.Name)
		}
		return fmt.Errorf("insert %s: %w", dim, err)
	}
	return nil
}

func (r *Repository) ListNames(ctx context.Context, dim core.Dimension, userID string) ([]core.NameRecord, error) {
	table, err := dimensionTable(dim)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM `+table+` WHERE user_id = ? ORDER BY name COLLATE NOCASE`, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dim, err)
	}
	defer rows.Close()

	var out []core.NameRecord
	for rows.Next() {
		rec, err := scanName(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dim, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetName(ctx context.Context, dim core.Dimension, userID, id string) (core.NameRecord, error) {
	table, err := dimensionTable(dim)
	if err != nil {
		return core.NameRecord{}, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	rec, err := scanName(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NameRecord{}, fmt.Errorf("%w: %s %s", core.ErrNotFound, dim, id)
	}
	if err != nil {
		return core.NameRecord{}, fmt.Errorf("get %s: %w", dim, err)
	}
	return rec, nil
}

// FindNameFold looks a name up case-insensitively.
func (r *Repository) FindNameFold(ctx context.Context, dim core.Dimension, userID, name string) (core.NameRecord, bool, error) {
	table, err := dimensionTable(dim)
	if err != nil {
		return core.NameRecord{}, false, err
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM `+table+` WHERE user_id = ? AND name = ? COLLATE NOCASE`, userID, name)
	rec, err := scanName(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.NameRecord{}, false, nil
	}
	if err != nil {
		return core.NameRecord{}, false, fmt.Errorf("find %s: %w", dim, err)
	}
	return rec, true, nil
}

func (r *Repository) DeleteName(ctx context.Context, dim core.Dimension, userID, id string) error {
	table, err := dimensionTable(dim)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", dim, err)
	}
	return requireMatch(res, string(dim)+" "+id)
}

func scanName(row rowScanner) (core.NameRecord, error) {
	var (
		rec       core.NameRecord
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &createdAt); err != nil {
		return core.NameRecord{}, err
	}
	var err error
	if rec.CreatedAt, err = core.ParseTimestamp(createdAt); err != nil {
		return core.NameRecord{}, err
	}
	return rec, nil
}

// ---- reminders ----

const reminderColumns = `id, user_id, name, amount, category, paid_by, payment_method, frequency, start_month, end_month, is_active, created_at`

func (r *Repository) InsertReminder(ctx context.Context, rem core.Reminder) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (`+reminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.UserID, rem.Name, rem.Amount, rem.Category, rem.PaidBy, rem.PaymentMethod,
		rem.Frequency, string(rem.StartMonth), string(rem.EndMonth), rem.IsActive, core.FormatTimestamp(rem.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert reminder: %w", err)
	}
	return nil
}

func (r *Repository) GetReminder(ctx context.Context, userID, id string) (core.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	rem, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Reminder{}, fmt.Errorf("%w: reminder %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

// ListReminders returns the user's reminders in insertion order; activeOnly
// narrows to is_active templates.
func (r *Repository) ListReminders(ctx context.Context, userID string, activeOnly bool) ([]core.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []core.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *Repository) ReplaceReminder(ctx context.Context, rem core.Reminder) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET name = ?, amount = ?, category = ?, paid_by = ?,
		 payment_method = ?, frequency = ?, start_month = ?, end_month = ?, is_active = ?
		 WHERE id = ? AND user_id = ?`,
		rem.Name, rem.Amount, rem.Category, rem.PaidBy, rem.PaymentMethod,
		rem.Frequency, string(rem.StartMonth), string(rem.EndMonth), rem.IsActive,
		rem.ID, rem.UserID)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	return requireMatch(res, "reminder "+rem.ID)
}

// DeleteReminder removes the template only; its execution rows stay behind as
// the audit trail.
func (r *Repository) DeleteReminder(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireMatch(res, "reminder "+id)
}

func scanReminder(row rowScanner) (core.Reminder, error) {
	var (
		rem                  core.Reminder
		startMonth, endMonth string
		createdAt            string
	)
	err := row.Scan(&rem.ID, &rem.UserID, &rem.Name, &rem.Amount, &rem.Category, &rem.PaidBy,
		&rem.PaymentMethod, &rem.Frequency, &startMonth, &endMonth, &rem.IsActive, &createdAt)
	if err != nil {
		return core.Reminder{}, err
	}
	rem.StartMonth = core.Month(startMonth)
	rem.EndMonth = core.Month(endMonth)
	if rem.CreatedAt, err = core.ParseTimestamp(createdAt); err != nil {
		return core.Reminder{}, err
	}
	return rem, nil
}

// ---- reminder executions ----

const executionColumns = `id, reminder_id, user_id, year, month, transaction_id, executed_at, status`

// RecordExecution writes the execution row and its generated expense in one
// transaction. The execution insert goes first so the unique period index acts
// as the serialization point: a concurrent duplicate aborts here with Conflict
// and the transaction leaves nothing behind.
func (r *Repository) RecordExecution(ctx context.Context, exec core.ReminderExecution, generated core.Expense) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin execution: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reminder_executions (`+executionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID, exec.ReminderID, exec.UserID, exec.Year, exec.Month,
		exec.TransactionID, core.FormatTimestamp(exec.ExecutedAt), exec.Status)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: reminder already executed for %04d-%02d", core.ErrConflict, exec.Year, exec.Month)
		}
		return fmt.Errorf("insert execution: %w", err)
	}

	if err := r.insertExpense(ctx, tx, generated); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit execution: %w", err)
	}
	return nil
}

// ListExecutions returns every execution row for a reminder, most recent
// period first. The reminder itself may no longer exist.
func (r *Repository) ListExecutions(ctx context.Context, userID, reminderID string) ([]core.ReminderExecution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+executionColumns+` FROM reminder_executions
		 WHERE user_id = ? AND reminder_id = ?
		 ORDER BY year DESC, month DESC`, userID, reminderID)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var out []core.ReminderExecution
	for rows.Next() {
		var (
			e          core.ReminderExecution
			executedAt string
		)
		err := rows.Scan(&e.ID, &e.ReminderID, &e.UserID, &e.Year, &e.Month,
			&e.TransactionID, &executedAt, &e.Status)
		if err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		if e.ExecutedAt, err = core.ParseTimestamp(executedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) HasCompletedExecution(ctx context.Context, reminderID string, year, month int) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reminder_executions
		 WHERE reminder_id = ? AND year = ? AND month = ? AND status = ?`,
		reminderID, year, month, core.ExecutionCompleted).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check execution: %w", err)
	}
	return n > 0, nil
}

// CompletedReminderIDs returns the set of reminder ids with a completed
// execution in the given period, for the due-list set difference.
func (r *Repository) CompletedReminderIDs(ctx context.Context, userID string, year, month int) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT reminder_id FROM reminder_executions
		 WHERE user_id = ? AND year = ? AND month = ? AND status = ?`,
		userID, year, month, core.ExecutionCompleted)
	if err != nil {
		return nil, fmt.Errorf("completed reminder ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reminder id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func requireMatch(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, what)
	}
	return nil
}
