package core

// ExpenseFilter narrows an expense scan. Zero values mean "no constraint".
// Date bounds are inclusive and rely on YYYY-MM-DD sorting lexicographically
// in chronological order; MonthPrefix matches the date's YYYY-MM prefix.
type ExpenseFilter struct {
	Category        string
	TransactionType string
	DateFrom        string
	DateTo          string
	MonthPrefix     Month
	Limit           int
}

// ExpensePatch carries a sparse update: nil fields stay untouched.
type ExpensePatch struct {
	Date            *string  `json:"date,omitempty"`
	Category        *string  `json:"category,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	TransactionType *string  `json:"transaction_type,omitempty"`
	PaymentMethod   *string  `json:"payment_method,omitempty"`
	PaidBy          *string  `json:"paid_by,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Category == nil && p.Description == nil &&
		p.Amount == nil && p.TransactionType == nil && p.PaymentMethod == nil &&
		p.PaidBy == nil && p.Notes == nil
}

// ReminderPatch carries a sparse reminder update: nil fields stay untouched.
// Month fields arrive as raw strings; the service validates them against the
// merged record.
type ReminderPatch struct {
	Name          *string  `json:"name,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Category      *string  `json:"category,omitempty"`
	PaidBy        *string  `json:"paid_by,omitempty"`
	PaymentMethod *string  `json:"payment_method,omitempty"`
	StartMonth    *string  `json:"start_month,omitempty"`
	EndMonth      *string  `json:"end_month,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

func (p ReminderPatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.Category == nil &&
		p.PaidBy == nil && p.PaymentMethod == nil &&
		p.StartMonth == nil && p.EndMonth == nil && p.IsActive == nil
}
